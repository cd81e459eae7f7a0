package dto

// StatusHandler - receives human readable status messages
type StatusHandler func(msg string)

// BatchHandler - receives decoded sample batches
type BatchHandler func(batch SampleBatch)
