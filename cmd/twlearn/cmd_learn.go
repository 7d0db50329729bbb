package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/apertium-contrib/twlearn/driver"
	"github.com/apertium-contrib/twlearn/oracle"
	"github.com/apertium-contrib/twlearn/scorer"
	"github.com/apertium-contrib/twlearn/twcfg"
)

var learnConfigPath string

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Tag a corpus and learn transfer-rule weights, per the config file's mode",
	RunE:  runLearn,
}

func init() {
	learnCmd.Flags().StringVarP(&learnConfigPath, "config", "c", "", "path to the learner's YAML config file")
	learnCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(learnCmd)
}

func runLearn(cmd *cobra.Command, args []string) error {
	cfg, err := twcfg.Load(learnConfigPath)
	if err != nil {
		return err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Println(e)
		}
		return fmt.Errorf("config %q failed validation (%d problem(s))", learnConfigPath, len(errs))
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	paths := oracle.Paths{
		TixBase: filepath.Join(cfg.ApertiumPairData, filepath.Base(cfg.ApertiumPairData)+"."+cfg.Source+"-"+cfg.Target),
		BinBase: filepath.Join(cfg.ApertiumPairData, cfg.Source+"-"+cfg.Target),
	}

	o, err := oracle.NewPipelineOracle(ctx, logger, oracle.DefaultPrograms(), paths)
	if err != nil {
		return err
	}
	defer o.Close()

	var outPath string
	switch cfg.Mode {
	case twcfg.ModeMono:
		lm, err := scorer.Load(cfg.LanguageModel)
		if err != nil {
			return err
		}
		outPath, err = driver.LearnFromMonolingual(ctx, driver.MonolingualOptions{
			Config: cfg,
			Log:    logger,
			Oracle: o,
			Scorer: lm,
		})
		if err != nil {
			return err
		}
	case twcfg.ModeParallel:
		outPath, err = driver.LearnFromParallel(ctx, driver.ParallelOptions{
			Config: cfg,
			Log:    logger,
			Oracle: o,
		})
		if err != nil {
			return err
		}
	}

	logger.Info("wrote pruned weights file", "path", outPath)
	fmt.Println(outPath)
	return nil
}
