package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/askiada/go-flowfit/pkg/dataset"
	"github.com/askiada/go-flowfit/pkg/flow/drawer"
	"github.com/askiada/go-flowfit/pkg/learner"
	"github.com/askiada/go-flowfit/pkg/modelstore"
	"github.com/askiada/go-flowfit/pkg/persist"
	"github.com/askiada/go-flowfit/pkg/resample"
)

func trainCommand(c *cli.Context) error {
	ctx := context.Background()

	ds, err := readDataset(c.String("csv"), c.String("target"))
	if err != nil {
		return err
	}

	f, err := buildFlow(c)
	if err != nil {
		return err
	}
	base, err := buildLearner(c)
	if err != nil {
		return err
	}

	gl, err := learner.NewGraphLearner(f, base)
	if err != nil {
		return err
	}

	slog.Info("training", "model", c.String("model"), "rows", ds.NumRows(), "learner", base.Name())

	if err := gl.Train(ctx, ds); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	snapshot, err := persist.Encode(gl)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	store, err := modelstore.Open(c.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(c.String("model"), snapshot); err != nil {
		return err
	}

	slog.Info("model stored", "model", c.String("model"), "bytes", len(snapshot))

	return nil
}

func predictCommand(c *cli.Context) error {
	ctx := context.Background()

	store, err := modelstore.Open(c.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	snapshot, err := store.Load(c.String("model"))
	if err != nil {
		return err
	}

	var opts []persist.Option
	if c.String("embedding-model") != "" {
		embedder, err := buildEmbedder(c)
		if err != nil {
			return err
		}
		opts = append(opts, persist.WithEmbedder(embedder))
	}

	gl, err := persist.Decode(snapshot, opts...)
	if err != nil {
		return fmt.Errorf("decode model %q: %w", c.String("model"), err)
	}

	ds, err := readDataset(c.String("csv"), "")
	if err != nil {
		return err
	}

	pred, err := gl.Predict(ctx, ds)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}

	out := io.Writer(os.Stdout)
	if path := c.String("output"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer file.Close()
		out = file
	}

	return writePredictions(out, pred)
}

func writePredictions(w io.Writer, pred *learner.Prediction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"prediction"}); err != nil {
		return err
	}

	for i := 0; i < pred.Len(); i++ {
		var value string
		if pred.Response != nil {
			value = strconv.FormatFloat(pred.Response[i], 'g', -1, 64)
		} else {
			value = pred.Labels[i]
		}
		if err := cw.Write([]string{value}); err != nil {
			return err
		}
	}
	cw.Flush()

	return cw.Error()
}

func cvCommand(c *cli.Context) error {
	ctx := context.Background()

	ds, err := readDataset(c.String("csv"), c.String("target"))
	if err != nil {
		return err
	}

	build := func() (learner.Learner, error) {
		f, err := buildFlow(c)
		if err != nil {
			return nil, err
		}
		base, err := buildLearner(c)
		if err != nil {
			return nil, err
		}

		return learner.NewGraphLearner(f, base)
	}

	// The measure set follows the learner's task type. Featureless adapts
	// to the target column, so inspect it.
	var measures []resample.Measure
	switch c.String("learner") {
	case "knn":
		measures = []resample.Measure{resample.Accuracy{}}
	case "linear":
		measures = []resample.Measure{resample.RMSE{}, resample.MAE{}, resample.R2{}}
	default:
		col, err := ds.Column(c.String("target"))
		if err != nil {
			return err
		}
		if col.Type == dataset.Numeric {
			measures = []resample.Measure{resample.RMSE{}}
		} else {
			measures = []resample.Measure{resample.Accuracy{}}
		}
	}

	strategy := resample.KFold{K: c.Int("folds"), Seed: c.Int64("seed")}

	var opts []resample.Option
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, resample.WithPoolSize(workers))
	}

	result, err := resample.Run(ctx, build, ds, strategy, measures, opts...)
	if err != nil {
		return fmt.Errorf("cross-validate: %w", err)
	}

	for _, m := range measures {
		fmt.Printf("%s: %.4f\n", m.Name(), result.Mean(m.Name()))
	}

	return nil
}

func modelsListCommand(c *cli.Context) error {
	store, err := modelstore.Open(c.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	names, err := store.List()
	if err != nil {
		return err
	}

	for _, name := range names {
		fmt.Println(name)
	}

	return nil
}

func modelsDeleteCommand(c *cli.Context) error {
	store, err := modelstore.Open(c.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Delete(c.String("model"))
}

func drawCommand(c *cli.Context) error {
	store, err := modelstore.Open(c.String("db"))
	if err != nil {
		return err
	}
	defer store.Close()

	snapshot, err := store.Load(c.String("model"))
	if err != nil {
		return err
	}

	gl, err := persist.Decode(snapshot)
	if err != nil {
		return fmt.Errorf("decode model %q: %w", c.String("model"), err)
	}

	return drawer.DrawFile(gl.Flow(), c.String("out"))
}
