package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/atinylittleshell/ghostwrite/internal/core"
	"github.com/atinylittleshell/ghostwrite/internal/notes"
	"github.com/atinylittleshell/ghostwrite/internal/settings"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var BUILD_VERSION = "dev"

var docTitle = flag.String("doc", "", "open or create the document with this title (default: today's date)")
var listFlag = flag.Bool("list", false, "list stored documents")
var resetSettings = flag.Bool("reset-settings", false, "overwrite the settings file with the defaults")

var helpFlag = flag.Bool("h", false, "display help information")
var versionFlag = flag.Bool("ver", false, "display build version")

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if *helpFlag {
		fmt.Println("Usage of ghostwrite:")
		flag.PrintDefaults()
		return
	}

	logger := initializeLogger()
	defer func() {
		_ = logger.Sync() // Flush any buffered log entries
	}()

	logger.Info("-------- new ghostwrite session --------", zap.Any("args", os.Args))

	settings.LoadEnvFile(core.EnvFile(), logger)

	if err := run(logger); err != nil {
		logger.Error("unhandled error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(logger *zap.Logger) error {
	// ghostwrite -reset-settings
	if *resetSettings {
		if err := settings.Reset(core.SettingsFile()); err != nil {
			return err
		}
		fmt.Println("settings reset:", core.SettingsFile())
		return nil
	}

	// ghostwrite -list
	if *listFlag {
		store, err := notes.NewStore(core.NotesFile())
		if err != nil {
			return err
		}
		defer func() {
			_ = store.Close()
		}()
		return listDocuments(os.Stdout, store)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("ghostwrite needs an interactive terminal")
	}

	title := *docTitle
	if title == "" {
		title = time.Now().Format("2006-01-02")
	}
	return core.RunEditor(title, logger)
}

func listDocuments(w io.Writer, store *notes.Store) error {
	docs, err := store.ListDocuments(100)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "no documents yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, doc := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			doc.Title,
			humanize.Comma(int64(doc.Blocks))+" blocks",
			"edited "+humanize.Time(doc.UpdatedAt),
		)
	}
	return tw.Flush()
}

func initializeLogger() *zap.Logger {
	logLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	if v := os.Getenv("GHOSTWRITE_LOG_LEVEL"); v != "" {
		if level, err := zap.ParseAtomicLevel(v); err == nil {
			logLevel = level
		}
	}
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	rotator := &lumberjack.Logger{
		Filename:   core.LogFile(),
		MaxSize:    10, // Megabytes
		MaxBackups: 3,
		MaxAge:     30, // Days
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zap.New(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), logLevel),
		zap.AddCaller(),
	)
}
