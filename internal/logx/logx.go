// internal/logx/logx.go
//
// Package logx 提供全系統共用的分類日誌 (category logging)。
// 每筆日誌帶有等級與分類標籤，例如 [INFO][CHAIN]，
// 同時輸出到 stderr 與可輪替 (rotate) 的檔案。
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 對應設定檔中的 log 區段。
type Options struct {
	File       string // 日誌檔路徑；空字串代表只輸出到 stderr
	MaxSizeMB  int
	MaxAgeDays int
	Debug      bool
}

var (
	mu      sync.RWMutex
	logger  = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	debug   bool
	rotator *lumberjack.Logger

	infoTag  = color.New(color.FgGreen).SprintfFunc()
	warnTag  = color.New(color.FgYellow).SprintfFunc()
	errorTag = color.New(color.FgRed).SprintfFunc()
	debugTag = color.New(color.FgBlue).SprintfFunc()
)

// Setup 依設定重建 logger。可重複呼叫；舊的檔案 handle 會被關閉。
func Setup(opts Options) {
	mu.Lock()
	defer mu.Unlock()

	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	var out io.Writer = os.Stderr
	if opts.File != "" {
		rotator = &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  opts.MaxSizeMB, // megabytes
			MaxAge:   opts.MaxAgeDays, // days
		}
		out = io.MultiWriter(os.Stderr, rotator)
	}
	logger = log.New(out, "", log.Ldate|log.Ltime|log.Lmicroseconds)
	debug = opts.Debug
}

// SetOutput 將輸出導向任意 writer，主要供測試擷取日誌。
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

// Close 關閉輪替檔案。
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if rotator == nil {
		return nil
	}
	err := rotator.Close()
	rotator = nil
	return err
}

func emit(tag string, content ...interface{}) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Printf("%s: %s", tag, fmt.Sprint(content...))
}

func Info(category string, content ...interface{}) {
	emit(infoTag("[INFO][%s]", category), content...)
}

func Warn(category string, content ...interface{}) {
	emit(warnTag("[WARN][%s]", category), content...)
}

func Error(category string, content ...interface{}) {
	emit(errorTag("[ERROR][%s]", category), content...)
}

// Debug 只在 Options.Debug 為 true 時輸出。
func Debug(category string, content ...interface{}) {
	mu.RLock()
	on := debug
	mu.RUnlock()
	if !on {
		return
	}
	emit(debugTag("[DEBUG][%s]", category), content...)
}

// Errorf logs an error message and returns a formatted error
func Errorf(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	Error("ERROR", err.Error())
	return err
}
