package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/strataml/strata/cmd/loops/recurring"
	kconf "github.com/strataml/strata/pkg/configs/strata"
	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/strata"
	"github.com/strataml/strata/pkg/utils/args"
	"github.com/strataml/strata/pkg/utils/filewatch"
	"github.com/strataml/strata/pkg/utils/try"
)

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	// call cancel() when this function exits
	defer cancel()

	// define command line flags
	//-- path to config file
	pconfig := flag.String(
		"config", os.Getenv("STRATA_CONFIG"), "path to config file",
	)
	//-- which sweep to run
	sweepName := args.Parser(domain.AsSweepName)
	flag.Var(sweepName, "type", "one of sweep type (tiering|orphan)")
	//-- loop policy
	policy := args.Parser(recurring.ParsePolicy)
	flag.Var(
		policy, "policy",
		`loop policy (syntax: forever[:COOLDOWN]|backlog).`+
			` "forever[:COOLDOWN]" = run forever until error. When backlog is over, `+
			`wait COOLDOWN (optional duration. default: the sweep's interval in config) as inteval.`+
			` "backlog" = run until error or backlog is over.`,
	)
	// parse command line flags
	flag.Parse()

	if !sweepName.IsSet() {
		logger.Fatal("--type is required (tiering|orphan)")
	}

	{
		// watch config; a modified config quits the process to restart with it
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(kconf.LoadStrataConfig(*pconfig)).OrFatal(logger)

	// the loops process leaves schema management to the API server
	s := try.To(strata.New(ctx, conf, strata.WithoutMigration())).OrFatal(logger)
	defer s.Close()

	pol := defaultPolicy(sweepName.Value(), conf)
	if policy.IsSet() {
		pol = policy.Value()
	}

	logger.Printf(
		`start loop "%s" /w policy "%s"`,
		sweepName.Value().String(), pol.String(),
	)

	err := StartLoop(
		ctx, logger, s,
		LoopManifest{
			Type:   sweepName.Value(),
			Policy: recurring.UntilError(pol),
		},
	)

	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		logger.Fatal(err, "(loop context is cancelled by:", context.Cause(ctx), ")")
	}
	logger.Fatal(err)
}

// defaultPolicy is the policy used when --policy is not passed: run forever,
// resting the configured interval between cycles.
func defaultPolicy(name domain.SweepName, conf *kconf.StrataConfig) recurring.Policy {
	switch name {
	case domain.SweepOrphan:
		return recurring.Forever(conf.Sweep().OrphanInterval())
	default:
		return recurring.Forever(conf.Sweep().Interval())
	}
}
