package main

import (
	"fmt"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/urfave/cli/v2"

	"github.com/askiada/go-flowfit/pkg/dataset"
	"github.com/askiada/go-flowfit/pkg/flow"
	"github.com/askiada/go-flowfit/pkg/learner"
	"github.com/askiada/go-flowfit/pkg/operator"
)

// pipelineFlags are the flags shared by commands that construct a flow
// and learner from scratch.
func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "impute",
			Usage: "Imputation strategy (mean, median, mode)",
			Value: "mean",
		},
		&cli.StringFlag{
			Name:  "encode",
			Usage: "Categorical encoding (treatment, onehot, frequency)",
			Value: "treatment",
		},
		&cli.StringFlag{
			Name:  "scale",
			Usage: "Numeric scaling (standard, minmax, robust, none)",
			Value: "none",
		},
		&cli.BoolFlag{
			Name:  "dates",
			Usage: "Expand timestamp columns into date part features",
		},
		&cli.BoolFlag{
			Name:  "text",
			Usage: "Expand text columns into length and word count features",
		},
		&cli.StringFlag{
			Name:  "embed-column",
			Usage: "Text column to replace with embedding features",
		},
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
		},
		&cli.StringFlag{
			Name:  "learner",
			Usage: "Terminal learner (featureless, knn, linear)",
			Value: "featureless",
		},
		&cli.IntFlag{
			Name:  "knn-k",
			Usage: "Number of neighbours for the knn learner",
			Value: 3,
		},
	}
}

// buildFlow assembles the preprocessing chain selected by the flags.
// The order is fixed: structural expansions first, then imputation,
// encoding and scaling.
func buildFlow(c *cli.Context) (*flow.Flow, error) {
	var ops []operator.Operator

	if c.Bool("dates") {
		ops = append(ops, operator.NewDateFeatures())
	}
	if c.Bool("text") {
		ops = append(ops, operator.NewTextFeatures())
	}
	if column := c.String("embed-column"); column != "" {
		embedder, err := buildEmbedder(c)
		if err != nil {
			return nil, err
		}
		ops = append(ops, operator.NewTextEmbed(column, embedder))
	}

	switch c.String("impute") {
	case "mean":
		ops = append(ops, operator.NewImputer(operator.ImputerStrategy(operator.ImputeMean)))
	case "median":
		ops = append(ops, operator.NewImputer(operator.ImputerStrategy(operator.ImputeMedian)))
	case "mode":
		ops = append(ops, operator.NewImputer(operator.ImputerStrategy(operator.ImputeMode)))
	case "none":
	default:
		return nil, fmt.Errorf("unknown imputation strategy %q", c.String("impute"))
	}

	switch c.String("encode") {
	case "treatment":
		ops = append(ops, operator.NewEncoder(operator.EncoderMethod(operator.Treatment)))
	case "onehot":
		ops = append(ops, operator.NewEncoder(operator.EncoderMethod(operator.OneHot)))
	case "frequency":
		ops = append(ops, operator.NewEncoder(operator.EncoderMethod(operator.Frequency)))
	case "none":
	default:
		return nil, fmt.Errorf("unknown encoding method %q", c.String("encode"))
	}

	switch c.String("scale") {
	case "standard":
		ops = append(ops, operator.NewScaler(operator.ScalerMethod(operator.ScaleStandard)))
	case "minmax":
		ops = append(ops, operator.NewScaler(operator.ScalerMethod(operator.ScaleMinMax)))
	case "robust":
		ops = append(ops, operator.NewScaler(operator.ScalerMethod(operator.ScaleRobust)))
	case "none":
	default:
		return nil, fmt.Errorf("unknown scaling method %q", c.String("scale"))
	}

	if len(ops) == 0 {
		return nil, fmt.Errorf("pipeline has no operators, enable at least one transform")
	}

	return flow.Chain(ops...)
}

// buildLearner constructs the terminal learner selected by the flags.
func buildLearner(c *cli.Context) (learner.Learner, error) {
	switch c.String("learner") {
	case "featureless":
		return learner.NewFeatureless(), nil
	case "knn":
		return learner.NewKNN(learner.KNNNeighbours(c.Int("knn-k"))), nil
	case "linear":
		return learner.NewLinear(), nil
	default:
		return nil, fmt.Errorf("unknown learner %q", c.String("learner"))
	}
}

// buildEmbedder creates a langchaingo embedder against an
// OpenAI-compatible embedding service.
func buildEmbedder(c *cli.Context) (embeddings.Embedder, error) {
	model := c.String("embedding-model")
	if model == "" {
		return nil, fmt.Errorf("embedding-model is required when embedding is enabled")
	}

	client, err := openai.New(
		openai.WithBaseURL(c.String("embedding-host")),
		openai.WithToken("none"),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	return embedder, nil
}

// readDataset loads a CSV file with schema detection.
func readDataset(path, target string) (*dataset.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	ds, err := dataset.ReadCSVAuto(file, target)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return ds, nil
}
