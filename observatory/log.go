/*
	Photostat
	Copyright (c) 2025 Photostat Authors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package observatory

import (
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the main process log. All named logs should be derivatives of
// this logger. All log emissions should be sent through this logger or
// one of its derivatives.
var Log = newLogger()

// consoleLevel gates what reaches the terminal; the JSON run log
// always gets debug output.
var consoleLevel = zap.NewAtomicLevelAt(zap.InfoLevel)

// SetVerbose lowers the console output to debug level (or restores it
// to info).
func SetVerbose(verbose bool) {
	if verbose {
		consoleLevel.SetLevel(zap.DebugLevel)
	} else {
		consoleLevel.SetLevel(zap.InfoLevel)
	}
}

// newLogger returns a logger that writes to the console and, once a
// sink has been attached with AddLogFile, to a JSON run log as well.
// It is intended for setting up the main process logger during the
// program's init phase.
func newLogger() *zap.Logger {
	fileSync := zapcore.AddSync(fileLogOutputs)

	fileOut := zapcore.Lock(fileSync)
	consoleOut := zapcore.Lock(os.Stderr)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format("2006/01/02 15:04:05.000"))
	}
	encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encCfg)
	jsonEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder, consoleOut, consoleLevel),
		zapcore.NewCore(jsonEncoder, fileOut, zap.DebugLevel), // persisted with the report artifacts
	)

	return zap.New(core)
}

// multiFileWriter is like io.MultiWriter from the standard lib, except
// this supports dynamically adding and removing writers; it carries the
// run-log files that receive the JSON copy of process logs.
//
// This is a "best-effort" multi-writer. If there is an error writing to
// one sink, it does not abort and will continue to write to the other
// sinks. Write errors are discarded.
type multiFileWriter struct {
	sinks   []io.Writer
	sinksMu sync.RWMutex
}

func (mw *multiFileWriter) Write(p []byte) (n int, err error) {
	mw.sinksMu.RLock()
	for _, w := range mw.sinks {
		_, err = w.Write(p)
	}
	mw.sinksMu.RUnlock()
	return len(p), err
}

// AddSink subscribes w to writes.
func (mw *multiFileWriter) AddSink(w io.Writer) {
	mw.sinksMu.Lock()
	mw.sinks = append(mw.sinks, w)
	mw.sinksMu.Unlock()
}

// RemoveSink unsubscribes w from writes, if it is subscribed.
func (mw *multiFileWriter) RemoveSink(w io.Writer) {
	mw.sinksMu.Lock()
	for i, mww := range mw.sinks {
		if mww == w {
			mw.sinks = append(mw.sinks[:i], mw.sinks[i+1:]...)
			break
		}
	}
	mw.sinksMu.Unlock()
}

// fileLogOutputs mediates the list of run-log files that are
// receiving process logs.
var fileLogOutputs = new(multiFileWriter)

// AddLogFile subscribes w to the JSON log output. When the file is
// closed, it should be removed with RemoveLogFile().
func AddLogFile(w io.Writer) {
	fileLogOutputs.AddSink(w)
}

// RemoveLogFile removes w from receiving logs. It is idempotent.
func RemoveLogFile(w io.Writer) {
	fileLogOutputs.RemoveSink(w)
}
