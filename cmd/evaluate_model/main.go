package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"loanapproval/loan"
	"loanapproval/logger"
	"loanapproval/ml"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("evaluate_model", flag.ContinueOnError)
	var (
		modelPath   string
		dataPath    string
		opts        loan.DatasetOptions
		logLevel    string
		showSamples bool
	)
	fs.StringVarP(&modelPath, "model", "m", "models/loan_approval_pipeline.json", "model artifact path")
	fs.StringVarP(&dataPath, "data", "d", "", "labelled CSV dataset")
	fs.StringVar(&opts.LabelColumn, "label-column", "Loan_Status", "column holding the outcome")
	fs.StringVar(&opts.PositiveLabel, "positive", "Y", "label value that marks an approval")
	fs.StringVar(&opts.IDColumn, "id-column", "Loan_ID", "column identifying each application")
	fs.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.BoolVarP(&showSamples, "verbose", "v", false, "print every scored application")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: evaluate_model --data <file.csv> [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if dataPath == "" {
		fmt.Fprintln(os.Stderr, "evaluate_model: --data is required")
		fs.Usage()
		return 2
	}

	log := logger.New(logger.Config{Level: logLevel, Format: "console"})
	defer log.Sync()

	model, err := ml.LoadModel(modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evaluate_model: %v\n", err)
		return 1
	}

	f, err := os.Open(dataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evaluate_model: %v\n", err)
		return 1
	}
	defer f.Close()

	samples, err := loan.ReadSamples(f, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evaluate_model: %s: %v\n", dataPath, err)
		return 1
	}

	ctx := context.Background()
	service := loan.NewService(model, log)
	if showSamples {
		for _, sample := range samples {
			verdict, err := service.Predict(ctx, sample.Record)
			if err != nil {
				log.Warn("sample failed", zap.String("id", sample.ID), zap.Error(err))
				continue
			}
			fmt.Printf("%s\t%s\t%s\n", sample.ID, verdict.Label, verdict.ConfidenceText())
		}
	}

	report := loan.Evaluate(ctx, service, samples)
	fmt.Printf("samples=%d scored=%d failed=%d\n", report.Total, report.Scored, report.Failed)
	fmt.Printf("accuracy=%.2f precision=%.2f recall=%.2f\n", report.Accuracy, report.Precision, report.Recall)
	return 0
}
