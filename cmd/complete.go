package cmd

import (
	"github.com/etnz/folio/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the folio command.
func Completion() *complete.Command {
	topics, _ := docs.GetAllTopics()
	topics = append(topics, "readme", "*")
	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"config": predict.Files("*.yaml"),
			"v":      predict.Nothing,
		},
		Sub: map[string]*complete.Command{
			"update": {},
			"run":    {},
			"correlate": {
				Flags: map[string]complete.Predictor{
					"p": predict.Set{"1mo", "3mo", "6mo", "1y", "2y", "5y", "ytd", "max"},
					"t": predict.Nothing,
				},
			},
			"init": {
				Flags: map[string]complete.Predictor{
					"ledger": predict.Files("*.jsonl"),
					"dsn":    predict.Nothing,
					"f":      predict.Nothing,
				},
			},
			"topic": {Args: predict.Set(topics)},
		},
	}
}
