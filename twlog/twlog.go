// Package twlog provides structured logging and periodic corpus-progress
// statistics, grounded on theRebelliousNerd-codenerd's go.uber.org/zap usage
// and on original_source/twlearner.py's "lines_count % 1000 == 0" progress prints.
package twlog

import (
	"go.uber.org/zap"
)

// Logger is a thin wrapper over zap's SugaredLogger exposing a structured,
// key-value call shape (msg, key, value, key, value, ...).
type Logger struct {
	s *zap.SugaredLogger
}

// New builds a Logger. debug enables debug-level output (subprocess
// lifecycle, per-translation traces); otherwise info level and above.
func New(debug bool) (*Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{s: z.Sugar()}, nil
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, kv ...any) {
	l.s.Debugw(msg, kv...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, kv ...any) {
	l.s.Infow(msg, kv...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, kv ...any) {
	l.s.Warnw(msg, kv...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, kv ...any) {
	l.s.Errorw(msg, kv...)
}

// Sync flushes any buffered log entries. Call before process exit.
func (l *Logger) Sync() error {
	return l.s.Sync()
}

// Stats counts recoverable per-line/per-sentence outcomes during a corpus
// pass (UnrecognizedSentence, MalformedScoreRow, EmptyCategory) and logs a
// progress line every N sentences, matching the original's lines_count %
// 1000 == 0 checkpoint prints.
type Stats struct {
	log    *Logger
	every  int
	sentences        int
	unrecognized     int
	emptyCategory    int
	malformedRows    int
}

// NewStats creates a Stats that logs a progress line every `every` sentences.
func NewStats(log *Logger, every int) *Stats {
	if every <= 0 {
		every = 1000
	}
	return &Stats{log: log, every: every}
}

// Sentence records one processed sentence and logs a checkpoint if due.
func (st *Stats) Sentence() {
	st.sentences++
	if st.sentences%st.every == 0 {
		st.log.Info("corpus progress",
			"sentences", st.sentences,
			"unrecognized", st.unrecognized,
			"empty_category", st.emptyCategory,
			"malformed_rows", st.malformedRows,
		)
	}
}

// Unrecognized records one UnrecognizedSentence occurrence.
func (st *Stats) Unrecognized() {
	st.unrecognized++
}

// EmptyCategory records n EmptyCategory occurrences from a single sentence's recognition.
func (st *Stats) EmptyCategory(n int) {
	st.emptyCategory += n
}

// MalformedRow records one MalformedScoreRow occurrence.
func (st *Stats) MalformedRow() {
	st.malformedRows++
}

// Final logs a final summary line. Call once after the pass completes.
func (st *Stats) Final() {
	st.log.Info("corpus pass complete",
		"sentences", st.sentences,
		"unrecognized", st.unrecognized,
		"empty_category", st.emptyCategory,
		"malformed_rows", st.malformedRows,
	)
}
