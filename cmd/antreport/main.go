// Command antreport reads a recorded match database and exports matches in
// the replay format.
//
// Usage:
//
//	antreport --db antclient.Rust_pirates.20260301_120000.db list
//	antreport --db antarena export 3 4
//	antreport backups
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/antarena/antclient/internal/config"
	"github.com/antarena/antclient/internal/database"
	"github.com/antarena/antclient/internal/model/convert"
	"github.com/antarena/antclient/internal/storage/memory"
	v1 "github.com/antarena/antclient/internal/storage/memory/export/v1"
	"github.com/spf13/pflag"
	"gorm.io/gorm"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("antreport", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	dbTarget := fs.String("db", "", "SQLite file (*.db) or Postgres database name")
	configDir := fs.String("config-dir", ".", "Directory containing antclient.cfg.json")
	outDir := fs.StringP("out", "o", ".", "Directory for exported files")
	compress := fs.Bool("compress", true, "Gzip exported files")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: antreport [flags] list | export <match id>... | backups")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return exitUsage
	}

	if err := config.Load(*configDir); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	// backups only looks at the SQLite output directory
	if strings.ToLower(rest[0]) == "backups" {
		if err := listBackups(config.GetStorageConfig().SQLite.OutputDir, stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return exitError
		}
		return exitOK
	}

	db, err := database.Open(*dbTarget, config.GetStorageConfig().Postgres)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open database: %v\n", err)
		return exitError
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	switch strings.ToLower(rest[0]) {
	case "list":
		err = listMatches(db, stdout)
	case "export":
		if len(rest) < 2 {
			fmt.Fprintln(stderr, "No match IDs provided.")
			return exitUsage
		}
		err = exportMatches(db, rest[1:], *outDir, *compress, stdout)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		fs.Usage()
		return exitUsage
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	return exitOK
}

func listMatches(db *gorm.DB, w io.Writer) error {
	matches, err := database.ListMatches(db)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTEAM\tSERVER\tSTART\tTURNS\tPOINTS\tEND")
	for _, m := range matches {
		reason := m.EndReason
		if m.EndTime == nil {
			reason = "running"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			m.ID,
			strings.TrimRight(m.TeamName, "\x00 "),
			m.Server,
			m.StartTime.Format("2006-01-02 15:04:05"),
			m.TurnCount,
			m.FinalPoints,
			reason,
		)
	}
	return tw.Flush()
}

func listBackups(dir string, w io.Writer) error {
	paths, err := database.GetBackupDBPaths(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}
	if len(paths) == 0 {
		fmt.Fprintf(w, "no database dumps in %s\n", dir)
		return nil
	}
	for _, p := range paths {
		fmt.Fprintln(w, p)
	}
	return nil
}

func exportMatches(db *gorm.DB, ids []string, outDir string, compress bool, w io.Writer) error {
	for _, raw := range ids {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid match id %q: %w", raw, err)
		}

		m, turns, err := database.LoadMatch(db, uint(id))
		if err != nil {
			return err
		}

		match := convert.MatchToCore(m)
		export := v1.Build(&v1.MatchData{
			Match:  match,
			Result: convert.MatchResultToCore(m),
			Turns:  turns,
		})

		path := filepath.Join(outDir, memory.ExportFileName(match, compress))
		if err := memory.WriteExport(path, compress, export); err != nil {
			return fmt.Errorf("failed to export match %d: %w", id, err)
		}
		fmt.Fprintf(w, "match %d: %d turns -> %s\n", id, len(turns), path)
	}
	return nil
}
