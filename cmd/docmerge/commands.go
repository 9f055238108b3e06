package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benjaminschreck/go-docmerge/pkg/docmerge"
	"github.com/benjaminschreck/go-docmerge/pkg/store"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan TEMPLATE",
		Short: "List the placeholders of a DOCX template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := docmerge.PrepareFile(args[0])
			if err != nil {
				return err
			}
			for _, name := range tmpl.Placeholders() {
				fmt.Fprintf(cmd.OutOrStdout(), "{%s}\n", name)
			}
			return nil
		},
	}
}

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns CSV",
		Short: "List the columns of a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := docmerge.ReadCSVFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# encoding=%s delimiter=%s rows=%d\n",
				table.Encoding, strconv.QuoteRune(table.Delimiter), len(table.Rows))
			for _, col := range table.Columns() {
				fmt.Fprintln(out, col)
			}
			return nil
		},
	}
}

type initOptions struct {
	csvPath      string
	templatePath string
	output       string
	force        bool
}

func newInitCmd() *cobra.Command {
	opts := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a profile with suggested column mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "CSV data file (required)")
	cmd.Flags().StringVar(&opts.templatePath, "template", "", "DOCX template (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "docmerge.yaml", "Profile file to write")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Replace an existing profile file")
	cmd.MarkFlagRequired("csv")
	cmd.MarkFlagRequired("template")
	return cmd
}

func runInit(cmd *cobra.Command, opts *initOptions) error {
	if !opts.force {
		if _, err := os.Stat(opts.output); err == nil {
			return fmt.Errorf("%s already exists (use --force to replace it)", opts.output)
		}
	}

	table, err := docmerge.ReadCSVFile(opts.csvPath)
	if err != nil {
		return err
	}
	tmpl, err := docmerge.PrepareFile(opts.templatePath)
	if err != nil {
		return err
	}

	placeholders := tmpl.Placeholders()
	profile := docmerge.SuggestProfile(placeholders, table.Headers)
	if err := docmerge.WriteProfileFile(opts.output, profile); err != nil {
		return err
	}

	var unmatched []string
	for _, name := range placeholders {
		if len(profile.Mappings[name].Columns()) == 0 {
			unmatched = append(unmatched, "{"+name+"}")
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s with %d mappings\n", opts.output, len(profile.Mappings))
	if len(unmatched) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No column found for %s; edit the profile before generating\n", strings.Join(unmatched, ", "))
	}
	return nil
}

type generateOptions struct {
	csvPath      string
	templatePath string
	outputDir    string
	profilePath  string
	archive      bool
	archiveName  string
	strict       bool
	overwrite    bool
	stateDB      string
	noState      bool
	prefix       string
	suffix       string
	nameFields   []string
}

func newGenerateCmd(config *docmerge.Config) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one document per CSV row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "CSV data file (required)")
	cmd.Flags().StringVar(&opts.templatePath, "template", "", "DOCX template (required)")
	cmd.Flags().StringVar(&opts.outputDir, "out", "", "Output directory (required)")
	cmd.Flags().StringVar(&opts.profilePath, "profile", "", "Profile file (default: the saved profile for this CSV and template)")
	cmd.Flags().BoolVar(&opts.archive, "zip", false, "Also write all documents into one zip archive")
	cmd.Flags().StringVar(&opts.archiveName, "archive-name", config.ArchiveName, "File name of the zip archive")
	cmd.Flags().BoolVar(&opts.strict, "strict", config.Strict, "Fail when a mapping names a column the CSV does not have")
	cmd.Flags().BoolVar(&opts.overwrite, "overwrite", config.Overwrite, "Replace documents left by earlier runs")
	cmd.Flags().StringVar(&opts.stateDB, "state-db", defaultStateDB(config), "Profile database")
	cmd.Flags().BoolVar(&opts.noState, "no-state", false, "Do not read or save profiles in the database")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "File name prefix")
	cmd.Flags().StringVar(&opts.suffix, "suffix", "", "File name suffix")
	cmd.Flags().StringSliceVar(&opts.nameFields, "name-field", nil, "Column(s) used for file names, at most two")
	cmd.MarkFlagRequired("csv")
	cmd.MarkFlagRequired("template")
	cmd.MarkFlagRequired("out")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	logger := docmerge.GetLogger()

	if len(opts.nameFields) > 2 {
		return fmt.Errorf("at most two --name-field columns are allowed, got %d", len(opts.nameFields))
	}

	table, err := docmerge.ReadCSVFile(opts.csvPath)
	if err != nil {
		return err
	}
	tmpl, err := docmerge.PrepareFile(opts.templatePath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		profileStore store.Store
		profileKey   string
	)
	if !opts.noState && opts.stateDB != "" {
		profileKey, err = docmerge.ProfileKeyFiles(opts.csvPath, opts.templatePath)
		if err != nil {
			return err
		}
		db, err := store.OpenSQLite(opts.stateDB)
		if err != nil {
			logger.Warn("profile database unavailable", zap.String("path", opts.stateDB), zap.Error(err))
		} else {
			defer db.Close()
			profileStore = db
		}
	}

	profile, err := loadProfile(ctx, opts, profileStore, profileKey, tmpl, table)
	if err != nil {
		return err
	}
	applyOverrides(cmd, opts, profile)

	for _, name := range tmpl.Placeholders() {
		if _, ok := profile.Mappings[name]; !ok {
			logger.Warn("placeholder has no mapping and is left as is", zap.String("placeholder", "{"+name+"}"))
		}
	}

	job := docmerge.Job{
		Table:       table,
		Template:    tmpl,
		Mappings:    profile.Mappings,
		Filename:    profile.Filename,
		OutputDir:   opts.outputDir,
		Archive:     profile.Archive,
		ArchiveName: opts.archiveName,
		Overwrite:   opts.overwrite,
		Strict:      opts.strict,
		Store:       profileStore,
		ProfileKey:  profileKey,
	}

	errOut := cmd.ErrOrStderr()
	run := docmerge.Start(ctx, job)
	for p := range run.Progress() {
		fmt.Fprintf(errOut, "\rGenerating %d/%d", p.Done, p.Total)
	}
	fmt.Fprintln(errOut)

	result, err := run.Wait()
	if result != nil {
		printSummary(cmd, result)
	}
	return err
}

// loadProfile picks the profile for a run: an explicit file, then the saved
// profile for this CSV and template, then suggested mappings.
func loadProfile(ctx context.Context, opts *generateOptions, s store.Store, key string, tmpl *docmerge.Template, table *docmerge.Table) (*docmerge.Profile, error) {
	logger := docmerge.GetLogger()

	if opts.profilePath != "" {
		return docmerge.LoadProfileFile(opts.profilePath)
	}

	if s != nil {
		profile, err := docmerge.LoadProfile(ctx, s, key)
		if err == nil {
			logger.Info("using saved profile", zap.String("key", key))
			return profile, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			logger.Warn("saved profile unreadable", zap.String("key", key), zap.Error(err))
		}
	}

	logger.Info("no profile given, using suggested mappings")
	return docmerge.SuggestProfile(tmpl.Placeholders(), table.Headers), nil
}

func applyOverrides(cmd *cobra.Command, opts *generateOptions, profile *docmerge.Profile) {
	flags := cmd.Flags()
	if flags.Changed("zip") {
		profile.Archive = opts.archive
	}
	if flags.Changed("prefix") {
		profile.Filename.Prefix = opts.prefix
	}
	if flags.Changed("suffix") {
		profile.Filename.Suffix = opts.suffix
	}
	if flags.Changed("name-field") {
		profile.Filename.Field1, profile.Filename.Field2 = "", ""
		if len(opts.nameFields) > 0 {
			profile.Filename.Field1 = opts.nameFields[0]
		}
		if len(opts.nameFields) > 1 {
			profile.Filename.Field2 = opts.nameFields[1]
		}
	}
}

func printSummary(cmd *cobra.Command, result *docmerge.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generated %d document(s)", len(result.Files))
	if result.Skipped > 0 {
		fmt.Fprintf(out, ", skipped %d empty row(s)", result.Skipped)
	}
	fmt.Fprintln(out)
	for _, f := range result.Files {
		fmt.Fprintf(out, "  %s\n", f.Path)
	}
	if result.ArchivePath != "" {
		fmt.Fprintf(out, "Archive: %s\n", result.ArchivePath)
	}
	if result.ArchiveErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Archive not written: %v\n", result.ArchiveErr)
	}
}

type profileOptions struct {
	stateDB      string
	csvPath      string
	templatePath string
}

// newProfileCmd groups the commands that manage profiles saved by generate.
func newProfileCmd(config *docmerge.Config) *cobra.Command {
	opts := &profileOptions{}
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage saved profiles",
	}
	cmd.PersistentFlags().StringVar(&opts.stateDB, "state-db", defaultStateDB(config), "Profile database")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the keys of saved profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileList(cmd, opts)
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved profile for a CSV file and template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileReset(cmd, opts)
		},
	}
	reset.Flags().StringVar(&opts.csvPath, "csv", "", "CSV data file (required)")
	reset.Flags().StringVar(&opts.templatePath, "template", "", "DOCX template (required)")
	reset.MarkFlagRequired("csv")
	reset.MarkFlagRequired("template")

	cmd.AddCommand(list, reset)
	return cmd
}

func openProfileStore(opts *profileOptions) (*store.SQLite, error) {
	if opts.stateDB == "" {
		return nil, errors.New("no profile database configured (use --state-db)")
	}
	return store.OpenSQLite(opts.stateDB)
}

func runProfileList(cmd *cobra.Command, opts *profileOptions) error {
	db, err := openProfileStore(opts)
	if err != nil {
		return err
	}
	defer db.Close()

	keys, err := db.Keys(cmd.Context())
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), key)
	}
	return nil
}

func runProfileReset(cmd *cobra.Command, opts *profileOptions) error {
	key, err := docmerge.ProfileKeyFiles(opts.csvPath, opts.templatePath)
	if err != nil {
		return err
	}
	db, err := openProfileStore(opts)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if _, err := db.Get(ctx, key); errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No saved profile for these files")
		return nil
	} else if err != nil {
		return err
	}
	if err := db.Delete(ctx, key); err != nil {
		return err
	}
	docmerge.GetLogger().Info("saved profile removed", zap.String("key", key))
	fmt.Fprintf(cmd.OutOrStdout(), "Removed saved profile %s\n", key)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docmerge version %s\n", version)
		},
	}
}
