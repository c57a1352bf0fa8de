package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ludo-technologies/jsguard/domain"
	"github.com/ludo-technologies/jsguard/internal/ast"
	"github.com/ludo-technologies/jsguard/internal/parser"
)

// SourceLoader reads and parses source files into syntax trees
type SourceLoader struct {
	reader      domain.JSFileReader
	parallelism int
	progress    domain.ProgressManager
	logger      zerolog.Logger
}

// NewSourceLoader creates a loader parsing up to parallelism files at once
func NewSourceLoader(reader domain.JSFileReader, parallelism int, progress domain.ProgressManager, logger zerolog.Logger) *SourceLoader {
	return &SourceLoader{
		reader:      reader,
		parallelism: parallelism,
		progress:    progress,
		logger:      logger,
	}
}

// Load parses the files in order. A file that cannot be read or parsed is
// skipped with a warning notification.
func (l *SourceLoader) Load(ctx context.Context, paths []string) ([]*ast.File, []domain.Notification, error) {
	slots := make([]parseTask, len(paths))
	tasks := make([]domain.ExecutableTask, len(paths))
	for i, path := range paths {
		slots[i] = parseTask{path: path, reader: l.reader}
		tasks[i] = &slots[i]
	}

	executor := NewParallelExecutor(l.parallelism)
	if l.progress != nil {
		executor = NewParallelExecutorWithProgress(l.parallelism, l.progress)
	}
	executor.SetDescription("Parsing files")

	if err := executor.Execute(ctx, tasks); err != nil {
		if errors.Is(err, domain.ErrCancelled) {
			return nil, nil, err
		}
		return nil, nil, domain.NewAnalysisError("failed to parse sources", err)
	}

	var (
		files         []*ast.File
		notifications []domain.Notification
	)
	for _, slot := range slots {
		if slot.err != nil {
			l.logger.Warn().Err(slot.err).Str("file", slot.path).Msg("skipping unparsable file")
			notifications = append(notifications, domain.Notification{
				Level:   domain.NotificationWarning,
				Message: fmt.Sprintf("File could not be parsed and was skipped: %v", slot.err),
				File:    slot.path,
			})
			continue
		}
		files = append(files, slot.file)
	}
	l.logger.Debug().Int("files", len(files)).Int("skipped", len(notifications)).Msg("sources loaded")
	return files, notifications, nil
}

// parseTask parses one file into its slot
type parseTask struct {
	path   string
	reader domain.JSFileReader
	file   *ast.File
	err    error
}

func (t *parseTask) Name() string { return t.path }

func (t *parseTask) IsEnabled() bool { return true }

func (t *parseTask) Execute(ctx context.Context) (interface{}, error) {
	source, err := t.reader.ReadFile(t.path)
	if err != nil {
		t.err = domain.NewFileNotFoundError(t.path, err)
		return nil, nil
	}
	file, err := parser.ParseForLanguage(ctx, t.path, source)
	if err != nil {
		t.err = domain.NewParseError(t.path, err)
		return nil, nil
	}
	t.file = file
	return file, nil
}
