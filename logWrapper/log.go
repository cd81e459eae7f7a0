package logWrapper

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/logger"
	"go.uber.org/atomic"
)

const loggerName = "nanoporeLink"

//LogFileType - wrapper over google logger which can switch the output file
type LogFileType struct {
	file       *os.File
	logWrapper *logger.Logger
	mtx        sync.RWMutex
	stop       chan struct{}
	stopOnce   sync.Once
}

var log LogFileType

var verbose = atomic.NewBool(false)

func init() {
	log.logWrapper = logger.Init(loggerName, true, false, io.Discard)
	log.stop = make(chan struct{})
}

//GetLogger - default logger
func GetLogger() *LogFileType {
	return &log
}

//SetVerbose - enables Debug and Trace output
func SetVerbose(v bool) {
	verbose.Store(v)
}

//IsVerbose - state of Debug and Trace output
func IsVerbose() bool {
	return verbose.Load()
}

//SetOutput - replaces the output of the default logger (stdout is always written)
func SetOutput(w io.Writer) {
	log.mtx.Lock()
	defer log.mtx.Unlock()
	log.logWrapper = logger.Init(loggerName, true, false, w)
}

// swapFile - switches the logger to f (nil means no file).
// The logger and the file of the previous rotation are closed. Must be called under mtx
func (l *LogFileType) swapFile(f *os.File) {
	var w io.Writer = io.Discard
	if f != nil {
		w = f
	}
	prev := l.logWrapper
	l.logWrapper = logger.Init(loggerName, true, false, w)
	if l.file == nil {
		l.file = f
		return
	}
	l.logWrapper.Infof("Close old file %s", l.file.Name())
	prev.Close()
	if err := l.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		l.logWrapper.Infof("Error when try close file %s", err.Error())
	}
	l.file = f
}

func (l *LogFileType) closeFile() {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.swapFile(nil)
}

// FileName - log file name for the moment t
func FileName(dir string, t time.Time) string {
	return filepath.Join(dir, "log "+t.Format("2006-01-02")+".txt")
}

// ChangeFile - writes log into dir and opens a new file every dT until StopRotation
func (l *LogFileType) ChangeFile(dir string, dT time.Duration) {
	defer l.closeFile()
	for {
		logFilePath := FileName(dir, time.Now())
		logFile, err := os.OpenFile(logFilePath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			Errorf("Error when try open a file for loging %s, %s", logFilePath, err.Error())
			return
		}
		l.mtx.Lock()
		l.swapFile(logFile)
		l.mtx.Unlock()
		select {
		case <-l.stop:
			return
		case <-time.After(dT):
		}
	}
}

// StopRotation - finish ChangeFile
func (l *LogFileType) StopRotation() {
	l.stopOnce.Do(func() { close(l.stop) })
}

/*
Implementation of the standard logger functions
*/

func SetFlags(flags int) {
	logger.SetFlags(flags)
}

func Debug(v ...interface{}) {
	if !verbose.Load() {
		return
	}
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.InfoDepth(1, v...)
}

func Debugf(format string, v ...interface{}) {
	if !verbose.Load() {
		return
	}
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.InfoDepth(1, fmt.Sprintf(format, v...))
}

func Trace(v ...interface{}) {
	if !verbose.Load() {
		return
	}
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.InfoDepth(1, v...)
}

func Tracef(format string, v ...interface{}) {
	if !verbose.Load() {
		return
	}
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.InfoDepth(1, fmt.Sprintf(format, v...))
}

// Info uses the default logger and logs with the Info severity.
// Arguments are handled in the manner of fmt.Print.
func Info(v ...interface{}) {
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.InfoDepth(1, v...)
}

// Infof uses the default logger and logs with the Info severity.
// Arguments are handled in the manner of fmt.Printf.
func Infof(format string, v ...interface{}) {
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.InfoDepth(1, fmt.Sprintf(format, v...))
}

// Warning uses the default logger and logs with the Warning severity.
func Warning(v ...interface{}) {
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.WarningDepth(1, v...)
}

// Warningf uses the default logger and logs with the Warning severity.
func Warningf(format string, v ...interface{}) {
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.WarningDepth(1, fmt.Sprintf(format, v...))
}

// Error uses the default logger and logs with the Error severity.
func Error(v ...interface{}) {
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.ErrorDepth(1, v...)
}

// Errorf uses the default logger and logs with the Error severity.
func Errorf(format string, v ...interface{}) {
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.ErrorDepth(1, fmt.Sprintf(format, v...))
}

// Fatal uses the default logger, logs with the Fatal severity,
// and ends with os.Exit(1).
func Fatal(v ...interface{}) {
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.FatalDepth(1, v...)
}

// Fatalf uses the default logger, logs with the Fatal severity,
// and ends with os.Exit(1).
func Fatalf(format string, v ...interface{}) {
	log.mtx.RLock()
	defer log.mtx.RUnlock()
	log.logWrapper.FatalDepth(1, fmt.Sprintf(format, v...))
}
