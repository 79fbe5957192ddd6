// Package paper materializes per-student exam papers: a randomized
// permutation of the exam's question pool plus a content fingerprint used
// for tamper and replay checks.
package paper

import (
	crand "crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"

	"golang.org/x/crypto/blake2b"

	"github.com/google/uuid"
	"github.com/oerms/oerms-backend/internal/apperr"
	"github.com/oerms/oerms-backend/internal/model"
)

// Item is one assembled paper entry: a question reference with the kind
// and correct answer copied at assembly time.
type Item struct {
	QuestionID    uuid.UUID          `json:"question_id"`
	Kind          model.QuestionKind `json:"kind"`
	CorrectAnswer string             `json:"correct_answer"`
}

// Assembler builds randomized papers. The random source is injectable so
// tests can fix the seed; production instances draw fresh entropy per
// assembly from crypto/rand.
type Assembler struct {
	newRand func() *rand.Rand
}

// NewAssembler returns an Assembler with cryptographically unpredictable
// ordering.
func NewAssembler() *Assembler {
	return &Assembler{
		newRand: func() *rand.Rand {
			var b [8]byte
			if _, err := crand.Read(b[:]); err != nil {
				panic(fmt.Sprintf("paper: read entropy: %v", err))
			}
			return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
		},
	}
}

// NewSeededAssembler returns an Assembler whose every assembly uses the
// given fixed seed. Test use only.
func NewSeededAssembler(seed int64) *Assembler {
	return &Assembler{
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(seed))
		},
	}
}

// Assemble produces a permutation of the full question pool and the
// fingerprint of the ordered (questionID, kind, correctAnswer) tuples. The pool
// is validated first: objective questions need at least two options and a
// correct option present among them.
func (a *Assembler) Assemble(questions []model.Question) ([]Item, string, error) {
	if len(questions) == 0 {
		return nil, "", apperr.New(apperr.KindResourceExhausted, "no questions available for this exam")
	}

	for i := range questions {
		if err := validateQuestion(&questions[i]); err != nil {
			return nil, "", err
		}
	}

	items := make([]Item, len(questions))
	for i, q := range questions {
		items[i] = Item{QuestionID: q.ID, Kind: q.Kind, CorrectAnswer: q.CorrectOption}
	}

	rng := a.newRand()
	rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})

	fp, err := Fingerprint(items)
	if err != nil {
		return nil, "", err
	}
	return items, fp, nil
}

// Fingerprint computes the content digest of an ordered item set. Identical
// ordered sets always produce identical digests.
func Fingerprint(items []Item) (string, error) {
	canonical, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("serialize paper: %w", err)
	}
	sum := blake2b.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func validateQuestion(q *model.Question) error {
	if q.Kind != model.QuestionKindObjective {
		return nil
	}
	if len(q.Options) < 2 {
		return apperr.Newf(apperr.KindValidation,
			"objective question %s has fewer than two options", q.ID)
	}
	for _, opt := range q.Options {
		if opt == q.CorrectOption {
			return nil
		}
	}
	return apperr.Newf(apperr.KindValidation,
		"objective question %s has no correct option among its options", q.ID)
}
