package domain

import "time"

// ModelArtifact is a persisted per-number classifier.
// Payload is opaque to storage; Columns pins the feature order it was fit on.
type ModelArtifact struct {
	Number         int       // lottery number in [1, PoolSize]
	Columns        []string  // feature column order used at fit time
	Payload        []byte    // serialized classifier
	TrainedRows    int       // number of feature rows used for fitting
	TrainedThrough int64     // newest draw id present in the training rows
	TrainedAt      time.Time // wall clock at fit time, informational only
}
