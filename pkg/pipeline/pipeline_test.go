package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ib-77/seqflow/internal/diag"
	"github.com/ib-77/seqflow/pkg/pipeline"
	"github.com/ib-77/seqflow/pkg/processor"
	"github.com/ib-77/seqflow/pkg/table"
)

var errRejected = errors.New("rejected")

// lengthProcessor reports the key length and fails for every key in fail.
// Sleeps vary per key so completion order differs from input order.
func lengthProcessor(fail ...string) processor.Processor {
	bad := make(map[string]bool, len(fail))
	for _, k := range fail {
		bad[k] = true
	}
	return processor.Func("length", []string{"length", "tag"},
		func(ctx context.Context, key string) (processor.Payload, error) {
			select {
			case <-time.After(time.Duration(len(key)%4) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if bad[key] {
				return nil, fmt.Errorf("%s: %w", key, errRejected)
			}
			return processor.Payload{
				"length": table.Scalar(fmt.Sprint(len(key))),
				"tag":    table.List(strings.ToLower(key[:1]), "x"),
			}, nil
		})
}

func sourceTable(keys ...string) *table.Table {
	t := table.New("id", "sequence")
	for i, k := range keys {
		t.Append(table.NewRecord(
			table.Field{Name: "id", Value: table.Scalar(fmt.Sprintf("r%d", i+1))},
			table.Field{Name: "sequence", Value: table.Scalar(k)},
		))
	}
	return t
}

func cells(r table.Record) []string {
	var out []string
	for _, f := range r.Fields() {
		if f.Value.IsAbsent() {
			out = append(out, f.Name+"=<absent>")
			continue
		}
		out = append(out, f.Name+"="+f.Value.String())
	}
	return out
}

func byKey(t *table.Table) map[string][]string {
	m := make(map[string][]string, t.Len())
	for _, r := range t.Rows() {
		k, _ := r.Get("sequence")
		m[k.String()] = cells(r)
	}
	return m
}

func keysOf(t *table.Table) []string {
	var keys []string
	for _, v := range t.Column("sequence") {
		keys = append(keys, v.String())
	}
	return keys
}

func generateKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = strings.Repeat("M", i%7+1) + fmt.Sprintf("K%03d", i)
	}
	return keys
}

var _ = Describe("Process", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("keeps every input row in input order", func() {
		keys := generateKeys(40)
		rep, err := pipeline.Process(ctx, sourceTable(keys...), pipeline.Options{
			Processor: lengthProcessor(),
			Workers:   8,
			Logger:    diag.Discard(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Rows).To(Equal(40))
		Expect(keysOf(rep.Table)).To(Equal(keys))
		Expect(rep.Table.Header()).To(Equal([]string{"id", "sequence", "length", "tag"}))
	})

	It("populates every payload field when the processor always succeeds", func() {
		keys := generateKeys(12)
		rep, err := pipeline.Process(ctx, sourceTable(keys...), pipeline.Options{
			Processor: lengthProcessor(),
			Logger:    diag.Discard(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Summary.Succeeded).To(Equal(12))
		for i, r := range rep.Table.Rows() {
			length, ok := r.Get("length")
			Expect(ok).To(BeTrue())
			Expect(length.String()).To(Equal(fmt.Sprint(len(keys[i]))))
			tag, _ := r.Get("tag")
			Expect(tag.Items()).To(Equal([]string{"m", "x"}))
		}
	})

	It("marks exactly the failed rows absent and reports each once", func() {
		sink := &diag.MemorySink{}
		rep, err := pipeline.Process(ctx, sourceTable("AAAAA", "BBBBB", "CCCCC"), pipeline.Options{
			Processor: lengthProcessor("BBBBB"),
			Sink:      sink,
			Logger:    diag.Discard(),
		})
		Expect(err).NotTo(HaveOccurred())

		rows := rep.Table.Rows()
		Expect(rows).To(HaveLen(3))
		Expect(cells(rows[0])).To(Equal([]string{"id=r1", "sequence=AAAAA", "length=5", "tag=a;x"}))
		Expect(cells(rows[1])).To(Equal([]string{"id=r2", "sequence=BBBBB", "length=<absent>", "tag=<absent>"}))
		Expect(cells(rows[2])).To(Equal([]string{"id=r3", "sequence=CCCCC", "length=5", "tag=c;x"}))

		Expect(sink.Keys()).To(Equal([]string{"BBBBB"}))
		Expect(sink.Entries()[0].Err).To(MatchError(errRejected))
		Expect(rep.Summary.Failed).To(Equal(1))
		Expect(rep.Summary.Succeeded).To(Equal(2))
	})

	It("gives every row the same content regardless of input order", func() {
		keys := generateKeys(30)
		failing := []string{keys[3], keys[17], keys[29]}
		opts := pipeline.Options{Processor: lengthProcessor(failing...), Workers: 5, Logger: diag.Discard()}

		first, err := pipeline.Process(ctx, sourceTable(keys...), opts)
		Expect(err).NotTo(HaveOccurred())

		shuffled := append([]string(nil), keys...)
		rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		second, err := pipeline.Process(ctx, sourceTable(shuffled...), opts)
		Expect(err).NotTo(HaveOccurred())

		Expect(keysOf(second.Table)).To(Equal(shuffled))
		a, b := byKey(first.Table), byKey(second.Table)
		Expect(b).To(HaveLen(len(a)))
		for k, row := range a {
			// ids follow input position, payload follows the key
			Expect(b[k][2:]).To(Equal(row[2:]), k)
		}
	})

	DescribeTable("produces identical tables for any worker count",
		func(workers int) {
			keys := generateKeys(25)
			base, err := pipeline.Process(ctx, sourceTable(keys...), pipeline.Options{
				Processor: lengthProcessor(keys[0], keys[11]),
				Workers:   1,
				Logger:    diag.Discard(),
			})
			Expect(err).NotTo(HaveOccurred())

			rep, err := pipeline.Process(ctx, sourceTable(keys...), pipeline.Options{
				Processor: lengthProcessor(keys[0], keys[11]),
				Workers:   workers,
				Logger:    diag.Discard(),
			})
			Expect(err).NotTo(HaveOccurred())
			for i, r := range rep.Table.Rows() {
				Expect(cells(r)).To(Equal(cells(base.Table.Rows()[i])))
			}
		},
		Entry("one worker", 1),
		Entry("four workers", 4),
		Entry("one worker per record", 25),
	)

	It("flags duplicate keys and gives each duplicate row the result", func() {
		rep, err := pipeline.Process(ctx, sourceTable("MKV", "MKT", "MKV"), pipeline.Options{
			Processor: lengthProcessor(),
			Logger:    diag.Discard(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.DuplicateKeys).To(Equal([]string{"MKV"}))
		Expect(rep.Summary.Repeated).To(Equal(1))
		rows := rep.Table.Rows()
		Expect(cells(rows[2])[2:]).To(Equal(cells(rows[0])[2:]))
	})

	It("fails structurally when the key column is missing", func() {
		src := table.New("id")
		src.Append(table.NewRecord(table.Field{Name: "id", Value: table.Scalar("r1")}))
		_, err := pipeline.Process(ctx, src, pipeline.Options{Processor: lengthProcessor(), Logger: diag.Discard()})
		Expect(err).To(MatchError(table.ErrKeyFieldMissing))
	})

	It("requires a processor", func() {
		_, err := pipeline.Process(ctx, sourceTable("MKV"), pipeline.Options{})
		Expect(err).To(MatchError(pipeline.ErrNoProcessor))
	})

	It("counts items past their deadline as timed out", func() {
		slow := processor.Func("slow", []string{"v"}, func(_ context.Context, key string) (processor.Payload, error) {
			if key == "SLOW" {
				time.Sleep(300 * time.Millisecond)
			}
			return processor.Payload{"v": table.Scalar("ok")}, nil
		})
		sink := &diag.MemorySink{}
		rep, err := pipeline.Process(ctx, sourceTable("FAST", "SLOW"), pipeline.Options{
			Processor:   slow,
			ItemTimeout: 30 * time.Millisecond,
			Sink:        sink,
			Logger:      diag.Discard(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Summary.TimedOut).To(Equal(1))
		Expect(sink.Entries()).To(HaveLen(1))
		Expect(sink.Entries()[0].Code).To(Equal(diag.CodeTimeout))
		v, _ := rep.Table.Rows()[1].Get("v")
		Expect(v.IsAbsent()).To(BeTrue())
	})
})

var _ = Describe("Run", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "seqflow-pipeline")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
	})

	It("reads a tsv file and writes the joined table", func() {
		in := filepath.Join(dir, "in.tsv")
		Expect(os.WriteFile(in, []byte("id\tsequence\nr1\tAAAAA\nr2\tBBBBB\n"), 0o644)).To(Succeed())
		out := filepath.Join(dir, "out.tsv")

		rep, err := pipeline.Run(context.Background(), pipeline.Options{
			Input:     in,
			Output:    out,
			Processor: lengthProcessor("BBBBB"),
			Logger:    diag.Discard(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(rep.Output).To(Equal(out))

		data, err := os.ReadFile(out)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("id\tsequence\tlength\ttag\nr1\tAAAAA\t5\ta;x\nr2\tBBBBB\t\t\n"))
	})

	It("writes nothing when the input lacks the key column", func() {
		in := filepath.Join(dir, "in.csv")
		Expect(os.WriteFile(in, []byte("id,name\nr1,x\n"), 0o644)).To(Succeed())
		out := filepath.Join(dir, "out.csv")

		_, err := pipeline.Run(context.Background(), pipeline.Options{
			Input:     in,
			Output:    out,
			Processor: lengthProcessor(),
			Logger:    diag.Discard(),
		})
		Expect(err).To(MatchError(table.ErrKeyFieldMissing))
		_, statErr := os.Stat(out)
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})

	It("reports a missing input file", func() {
		_, err := pipeline.Run(context.Background(), pipeline.Options{
			Input:     filepath.Join(dir, "missing.tsv"),
			Output:    filepath.Join(dir, "out.tsv"),
			Processor: lengthProcessor(),
			Logger:    diag.Discard(),
		})
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
	})
})
