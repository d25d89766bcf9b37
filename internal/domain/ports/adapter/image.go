package adapter

import "context"

// ImageValidator decides whether an uploaded image can be processed.
type ImageValidator interface {
	IsAcceptable(ctx context.Context, imagePath string) (bool, error)
}

// Transformer runs the external face-swap program. A nil error does not
// guarantee that outputPath was written.
type Transformer interface {
	Run(ctx context.Context, sourcePath, referencePath, outputPath string) error
}

// ReferencePool supplies the reference image for each job.
type ReferencePool interface {
	Pick() string
	Len() int
}
