package config

type WorkerKeyStruct struct {
	IntegrityQueue string
}

var WorkerKey = &WorkerKeyStruct{
	IntegrityQueue: "persist_integrity_queue",
}
