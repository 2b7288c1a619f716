package processor

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ib-77/seqflow/pkg/rop/solo"
	"github.com/ib-77/seqflow/pkg/table"
)

const (
	FieldPredictedPDB = "predicted_pdb"
	FieldConfidence   = "confidence"
)

// Structure is one predicted structure: where its PDB file lives and the
// model's confidence in [0, 1].
type Structure struct {
	PDBPath    string
	Confidence float64
}

// StructurePredictor produces a PDB file and confidence per sequence. With
// OutputDir set, each PDB is copied there and the copy's path is reported.
type StructurePredictor struct {
	OutputDir string
	// ScratchDir receives PDB files from the built-in simulation; defaults to
	// a seqflow directory under os.TempDir.
	ScratchDir string
	// Predict replaces the built-in simulation with a real prediction call.
	Predict func(ctx context.Context, seq string) (Structure, error)
}

var _ Processor = (*StructurePredictor)(nil)

func (p *StructurePredictor) Name() string { return "structure" }

func (p *StructurePredictor) Fields() []string {
	return []string{FieldPredictedPDB, FieldConfidence}
}

func (p *StructurePredictor) Process(ctx context.Context, key string) (Payload, error) {
	predict := p.Predict
	if predict == nil {
		predict = p.simulate
	}

	res := solo.Try(ctx, solo.Check(ctx, solo.Succeed(key), checkSequence), predict)
	if p.OutputDir != "" {
		res = solo.Try(ctx, res, p.save)
	}

	return solo.Map(ctx, res, func(_ context.Context, s Structure) Payload {
		return Payload{
			FieldPredictedPDB: table.Scalar(s.PDBPath),
			FieldConfidence:   table.Scalar(strconv.FormatFloat(s.Confidence, 'f', 4, 64)),
		}
	}).Unwrap()
}

// simulate stands in for a structure prediction service. The confidence is
// derived from the sequence so repeated runs agree.
func (p *StructurePredictor) simulate(ctx context.Context, seq string) (Structure, error) {
	if err := ctx.Err(); err != nil {
		return Structure{}, err
	}

	dir := p.ScratchDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "seqflow-pdb")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Structure{}, fmt.Errorf("scratch dir: %w", err)
	}

	s := NormalizeSequence(seq)
	path := filepath.Join(dir, stem(s)+".pdb")
	body := fmt.Sprintf("HEADER    PREDICTED STRUCTURE\nREMARK   1 SEQUENCE %s\nEND\n", s)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return Structure{}, fmt.Errorf("write pdb: %w", err)
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return Structure{PDBPath: path, Confidence: float64(h.Sum64()) / math.MaxUint64}, nil
}

// save copies the predicted PDB into OutputDir.
func (p *StructurePredictor) save(ctx context.Context, s Structure) (Structure, error) {
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return Structure{}, fmt.Errorf("output dir: %w", err)
	}

	src, err := os.Open(s.PDBPath)
	if err != nil {
		return Structure{}, fmt.Errorf("open pdb: %w", err)
	}
	defer src.Close()

	dest := filepath.Join(p.OutputDir, filepath.Base(s.PDBPath))
	dst, err := os.Create(dest)
	if err != nil {
		return Structure{}, fmt.Errorf("create pdb copy: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return Structure{}, fmt.Errorf("copy pdb: %w", err)
	}
	if err := dst.Close(); err != nil {
		return Structure{}, err
	}

	return Structure{PDBPath: dest, Confidence: s.Confidence}, ctx.Err()
}
