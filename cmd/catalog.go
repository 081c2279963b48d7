package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentgate/talentgate/internal/evaluation"
	"github.com/talentgate/talentgate/internal/logger"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the evaluations available in the catalog",
	Run: func(_ *cobra.Command, _ []string) {
		listCatalog()
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func listCatalog() {
	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}

	registry := evaluation.NewRegistry()
	catalog, err := evaluation.LoadCatalog(config.CatalogFile, registry)
	if err != nil {
		zlog.Fatal("loading evaluation catalog", zap.Error(err))
	}

	for _, eval := range catalog.List() {
		timing := "untimed"
		if eval.DurationMinutes > 0 {
			timing = fmt.Sprintf("%d min", eval.DurationMinutes)
		}
		fmt.Printf("%s\t%s\t%s\t%d questions\t%s\n", eval.ID, eval.Name, eval.Category, eval.Len(), timing)
	}
}
