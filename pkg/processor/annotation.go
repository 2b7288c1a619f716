package processor

import (
	"context"

	"github.com/ib-77/seqflow/pkg/rop/solo"
	"github.com/ib-77/seqflow/pkg/table"
)

const (
	FieldDomains = "domains"
	FieldFamily  = "family"
)

// DefaultDomains and DefaultFamily are what the simulated annotator reports.
var (
	DefaultDomains = []string{"Kinase", "ATPase", "Zinc finger", "Phosphatase"}
	DefaultFamily  = "Protein Kinase"
)

// Annotation is the functional annotation of one sequence.
type Annotation struct {
	Domains []string
	Family  string
}

// Annotator reports protein domains and family per sequence.
type Annotator struct {
	// Annotate replaces the built-in simulation with a real annotation call.
	Annotate func(ctx context.Context, seq string) (Annotation, error)
}

var _ Processor = (*Annotator)(nil)

func (a *Annotator) Name() string { return "annotation" }

func (a *Annotator) Fields() []string {
	return []string{FieldDomains, FieldFamily}
}

func (a *Annotator) Process(ctx context.Context, key string) (Payload, error) {
	annotate := a.Annotate
	if annotate == nil {
		annotate = simulateAnnotation
	}

	res := solo.Try(ctx, solo.Check(ctx, solo.Succeed(key), checkSequence), annotate)
	return solo.Map(ctx, res, func(_ context.Context, an Annotation) Payload {
		return Payload{
			FieldDomains: table.List(an.Domains...),
			FieldFamily:  table.Scalar(an.Family),
		}
	}).Unwrap()
}

func simulateAnnotation(ctx context.Context, _ string) (Annotation, error) {
	if err := ctx.Err(); err != nil {
		return Annotation{}, err
	}
	return Annotation{Domains: DefaultDomains, Family: DefaultFamily}, nil
}
