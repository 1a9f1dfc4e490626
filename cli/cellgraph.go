/*
 * CellGraph
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
CellGraph is a graph element store which keeps every element as a log of
mutations in a sorted cell store and resolves elements on read for a caller
with given authorizations.

Available commands:

	import    Import YAML mutation logs into the datastore
	fetch     Resolve elements from the datastore
	ids       List all stored element ids
	resolve   Resolve the elements of a YAML mutation log without a datastore
	eval      Evaluate a visibility expression
*/
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"devt.de/krotik/cellgraph/config"
	"devt.de/krotik/cellgraph/graph"
	"devt.de/krotik/cellgraph/resolve"
	"devt.de/krotik/cellgraph/storage"
	"devt.de/krotik/cellgraph/visibility"
	"devt.de/krotik/common/logutil"
	"devt.de/krotik/common/stringutil"
	"github.com/spf13/cobra"
)

/*
logger of the command line tool
*/
var logger = logutil.GetLogger("cellgraph")

/*
options holds the command line options.
*/
type options struct {
	configFile string
	auths      string
	properties bool
	metadata   bool
	hidden     bool
	edges      string
	labels     []string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

/*
newRootCmd creates the root command with all sub commands.
*/
func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "cellgraph",
		Short:         "CellGraph graph element store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.loadConfig(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", config.DefaultConfigFile,
		"Configuration file (created with defaults if it does not exist)")

	addResolveFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&opts.auths, "auths", "", "Comma separated authorizations of the caller "+
			"(default taken from the configuration)")
		cmd.Flags().BoolVar(&opts.properties, "properties", true, "Include properties")
		cmd.Flags().BoolVar(&opts.metadata, "metadata", true, "Include property metadata")
		cmd.Flags().BoolVar(&opts.hidden, "hidden", false, "Include hidden items")
		cmd.Flags().StringVar(&opts.edges, "edges", resolve.EdgeRefAll.String(),
			"Edge references to include: none, out, in, both, labels or all")
		cmd.Flags().StringSliceVar(&opts.labels, "labels", nil, "Only include edges with these labels")
	}

	importCmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import YAML mutation logs into the datastore",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runImport(cmd.OutOrStdout(), args)
		},
	}

	fetchCmd := &cobra.Command{
		Use:   "fetch <id>...",
		Short: "Resolve elements from the datastore",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runFetch(cmd.OutOrStdout(), args)
		},
	}
	addResolveFlags(fetchCmd)

	idsCmd := &cobra.Command{
		Use:   "ids",
		Short: "List all stored element ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runIDs(cmd.OutOrStdout())
		},
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Resolve the elements of a YAML mutation log without a datastore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runResolve(cmd.OutOrStdout(), args[0])
		},
	}
	addResolveFlags(resolveCmd)

	evalCmd := &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a visibility expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runEval(cmd.OutOrStdout(), args[0])
		},
	}
	evalCmd.Flags().StringVar(&opts.auths, "auths", "", "Comma separated authorizations of the caller "+
		"(default taken from the configuration)")

	rootCmd.AddCommand(importCmd, fetchCmd, idsCmd, resolveCmd, evalCmd)

	return rootCmd
}

/*
loadConfig loads the configuration file and sets up logging.
*/
func (opts *options) loadConfig(logOut io.Writer) error {
	if err := config.LoadConfigFile(opts.configFile); err != nil {
		return fmt.Errorf("Could not load configuration %v: %v", opts.configFile, err)
	}

	level := logutil.StringToLoglevel(config.Str(config.LogLevel))
	if level == "" {
		return fmt.Errorf("Unknown log level: %v", config.Str(config.LogLevel))
	}

	logutil.ClearLogSinks()
	logger.AddLogSink(level, logutil.ConsoleFormatter(), logOut)

	return nil
}

/*
authorizations returns the authorizations of the caller.
*/
func (opts *options) authorizations() visibility.Authorizations {
	if opts.auths != "" {
		return visibility.ParseAuthorizations(opts.auths)
	}
	return visibility.ParseAuthorizations(config.Str(config.DefaultAuthorizations))
}

/*
fetchHints returns the fetch hints which were given on the command line.
*/
func (opts *options) fetchHints() (resolve.FetchHints, error) {
	policy, err := resolve.ParseEdgeRefPolicy(opts.edges)
	if err != nil {
		return resolve.FetchHints{}, err
	}

	hints := resolve.FetchHints{
		IncludeProperties:       opts.properties,
		IncludePropertyMetadata: opts.properties && opts.metadata,
		IncludeHidden:           opts.hidden,
		EdgeRefs:                policy,
		EdgeLabels:              opts.labels,
	}

	return hints, hints.Validate()
}

/*
openManager opens the configured datastore.
*/
func (opts *options) openManager() (*graph.Manager, storage.Storage, error) {
	var s storage.Storage

	if config.Bool(config.MemoryOnlyStorage) {
		logger.Info("Using memory only storage")
		s = storage.NewMemoryStorage("cellgraph")

	} else {
		loc := config.Str(config.LocationDatastore)

		logger.Info("Using datastore in ", loc)

		bs, err := storage.NewBadgerStorage(loc, storage.BadgerConfig{
			Path:       loc,
			SyncWrites: config.Bool(config.BadgerSyncWrites),
		})
		if err != nil {
			return nil, nil, err
		}

		s = bs
	}

	gm := graph.NewManager(s, visibility.NewCache(int(config.Int(config.VisibilityCacheMaxSize))))

	if workers := config.Int(config.ResolveWorkers); workers > 0 {
		gm.SetResolveWorkers(int(workers))
	}

	return gm, s, nil
}

/*
runImport imports mutation logs into the datastore.
*/
func (opts *options) runImport(out io.Writer, files []string) error {
	gm, s, err := opts.openManager()
	if err != nil {
		return err
	}
	defer s.Close()

	newTrans := func(gm *graph.Manager) graph.Trans {
		return graph.NewGraphTrans(gm)
	}

	trans := graph.NewRollingTrans(newTrans(gm), int(config.Int(config.ImportCommitThreshold)), gm, newTrans)

	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return err
		}

		ids, err := graph.ImportMutations(f, trans, &graph.MsgpackValueCodec{})
		f.Close()

		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Imported %v element%v from %v\n", len(ids), stringutil.Plural(len(ids)), file)
	}

	return trans.Commit()
}

/*
runFetch resolves elements from the datastore and prints them as JSON.
*/
func (opts *options) runFetch(out io.Writer, ids []string) error {
	hints, err := opts.fetchHints()
	if err != nil {
		return err
	}

	gm, s, err := opts.openManager()
	if err != nil {
		return err
	}
	defer s.Close()

	res, fetchErr := gm.FetchElements(ids, opts.authorizations(), hints)

	if err := printSnapshots(out, res); err != nil {
		return err
	}

	return fetchErr
}

/*
runIDs prints all stored element ids.
*/
func (opts *options) runIDs(out io.Writer) error {
	gm, s, err := opts.openManager()
	if err != nil {
		return err
	}
	defer s.Close()

	it, err := gm.ElementIterator()
	if err != nil {
		return err
	}

	for it.HasNext() {
		fmt.Fprintln(out, it.Next())
	}

	return nil
}

/*
runResolve resolves all elements of a mutation log with the in-process
engine.
*/
func (opts *options) runResolve(out io.Writer, file string) error {
	hints, err := opts.fetchHints()
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	gm := graph.NewManager(storage.NewMemoryStorage("resolve"),
		visibility.NewCache(int(config.Int(config.VisibilityCacheMaxSize))))

	trans := graph.NewGraphTrans(gm)

	ids, err := graph.ImportMutations(f, trans, &graph.MsgpackValueCodec{})
	if err != nil {
		return err
	}

	auths := opts.authorizations()
	res := make([]*resolve.ElementSnapshot, 0, len(ids))

	for _, id := range ids {
		es, err := trans.Resolve(id, auths, hints)
		if err != nil {
			return err
		}
		res = append(res, es)
	}

	return printSnapshots(out, res)
}

/*
runEval evaluates a visibility expression.
*/
func (opts *options) runEval(out io.Writer, text string) error {
	e, err := visibility.Parse(text)
	if err != nil {
		return err
	}

	auths := opts.authorizations()

	fmt.Fprintf(out, "%v %v -> %v\n", e, auths, e.Evaluate(auths))

	return nil
}

/*
printSnapshots prints resolved elements as a JSON list. Elements which were
not found are printed as null.
*/
func printSnapshots(out io.Writer, res []*resolve.ElementSnapshot) error {
	codec := &graph.MsgpackValueCodec{}
	list := make([]interface{}, 0, len(res))

	for _, es := range res {
		if es == nil {
			list = append(list, nil)
			continue
		}
		list = append(list, graph.ExportSnapshot(es, codec))
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(out, string(data))

	return nil
}
