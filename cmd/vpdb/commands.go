package main

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hupe1980/vpdb"
	"github.com/hupe1980/vpdb/descriptor"
)

type app struct {
	configPath string
	flags      Config
}

func newRootCmd() *cobra.Command {
	a := &app{flags: DefaultConfig()}

	root := &cobra.Command{
		Use:           "vpdb",
		Short:         "Inspect and edit a vantage-point descriptor index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.StringVar(&a.flags.Dir, "dir", a.flags.Dir, "index directory of the local backend")
	pf.StringVar(&a.flags.Backend, "backend", a.flags.Backend, "shard store: local, s3 or minio")
	pf.IntVar(&a.flags.LeafCapacity, "leaf-capacity", a.flags.LeafCapacity, "records per leaf before it splits")
	pf.IntVar(&a.flags.ShardDepth, "shard-depth", a.flags.ShardDepth, "tree levels per shard file")
	pf.BoolVar(&a.flags.ExactPruning, "exact", a.flags.ExactPruning, "prune on Euclidean distances")
	pf.StringVar(&a.flags.Compression, "compression", a.flags.Compression, "shard compression: none, lz4 or zstd")
	pf.StringVar(&a.flags.LogLevel, "log-level", a.flags.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		a.printCmd(),
		a.sizeCmd(),
		a.searchCmd(),
		a.insertCmd(),
		a.seedCmd(),
		a.verifyCmd(),
	)
	return root
}

// config merges the config file with the flags the user set explicitly.
func (a *app) config(cmd *cobra.Command) (Config, error) {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return cfg, err
	}

	fs := cmd.Flags()
	if fs.Changed("dir") {
		cfg.Dir = a.flags.Dir
	}
	if fs.Changed("backend") {
		cfg.Backend = a.flags.Backend
	}
	if fs.Changed("leaf-capacity") {
		cfg.LeafCapacity = a.flags.LeafCapacity
	}
	if fs.Changed("shard-depth") {
		cfg.ShardDepth = a.flags.ShardDepth
	}
	if fs.Changed("exact") {
		cfg.ExactPruning = a.flags.ExactPruning
	}
	if fs.Changed("compression") {
		cfg.Compression = a.flags.Compression
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = a.flags.LogLevel
	}
	return cfg, nil
}

func (a *app) open(cmd *cobra.Command, extra ...vpdb.Option) (*vpdb.DB, error) {
	cfg, err := a.config(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.options(cmd.Context())
	if err != nil {
		return nil, err
	}
	return vpdb.Open(cmd.Context(), cfg.Dir, append(opts, extra...)...)
}

func (a *app) printCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "print <shard-file>",
		Short: "Print the outline of one shard file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.DebugPrint(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func (a *app) sizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Count the stored records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.Size(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "search <descriptor-hex>",
		Short: "Find the records nearest to a descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := descriptor.Parse(args[0])
			if err != nil {
				return err
			}
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := db.Search(cmd.Context(), target, k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "comparisons: %d\n", res.Comparisons)
			if _, ok := res.Best(); !ok {
				fmt.Fprintln(out, "no match")
				return nil
			}
			for _, n := range res.Neighbors {
				fmt.Fprintf(out, "%d\t%d\n", n.ID, n.Distance)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "neighbors", "k", vpdb.DefaultK, "number of neighbours")
	return cmd
}

func (a *app) insertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insert <id> <descriptor-hex>",
		Short: "Insert one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id: %w", err)
			}
			d, err := descriptor.Parse(args[1])
			if err != nil {
				return err
			}
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Insert(cmd.Context(), descriptor.Record{ID: id, Descriptor: d})
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	var (
		count   int
		seed    uint64
		startID uint64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert random records, e.g. for benchmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.open(cmd, vpdb.WithSeed(seed))
			if err != nil {
				return err
			}
			defer db.Close()

			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			records := make([]descriptor.Record, count)
			for i := range records {
				records[i] = descriptor.Record{ID: startID + uint64(i), Descriptor: descriptor.Random(rng)}
			}

			n, err := db.InsertBatch(cmd.Context(), records)
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d records\n", n)
			return err
		},
	}
	f := cmd.Flags()
	f.IntVar(&count, "count", 1000, "number of records")
	f.Uint64Var(&seed, "seed", 1, "random seed")
	f.Uint64Var(&startID, "start-id", 0, "identifier of the first record")
	return cmd
}

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check every shard and the radius invariant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := db.Verify(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "records:    %d (%d distinct, %d duplicate ids)\n", report.Records, report.DistinctIDs, report.DuplicateIDs)
			fmt.Fprintf(out, "shards:     %d\n", report.Shards)
			fmt.Fprintf(out, "internals:  %d\n", report.Internals)
			fmt.Fprintf(out, "leaves:     %d\n", report.Leaves)
			fmt.Fprintf(out, "max depth:  %d\n", report.MaxDepth)
			for _, name := range report.OrphanShards {
				fmt.Fprintf(out, "orphan:     %s\n", name)
			}
			for _, v := range report.Violations {
				fmt.Fprintf(out, "violation:  %s\n", v)
			}
			if !report.OK() {
				return fmt.Errorf("%d invariant violations", report.ViolationCount)
			}
			return nil
		},
	}
}
