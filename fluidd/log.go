package fluidd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/SSSOC-CAN/fluidd/utils"
	"github.com/mattn/go-colorable"
	color "github.com/mgutz/ansi"
	"github.com/rs/zerolog"
)

const (
	logFileRoot = "logfile"
	logFileExt  = "log"
	logFileName = "logfile.log"
)

// subLogger is a thin-wrapper for the `zerolog.Logger` struct
type subLogger struct {
	SubLogger zerolog.Logger
	Subsystem string
}

type moddedFileWriter struct {
	File         *os.File
	maxFileSize  int64 // bytes
	maxFiles     int64
	fileNameRoot string
	fileExt      string
	pathToFile   string
}

// Write Implements the io.Writer interface. Files are rotated once they reach maxFileSize
func (w *moddedFileWriter) Write(p []byte) (n int, err error) {
	stat, err := w.File.Stat()
	if err != nil {
		return 0, err
	}
	if w.maxFileSize <= 0 || stat.Size()+int64(len(p)) < w.maxFileSize {
		return w.File.Write(p)
	}
	r, err := regexp.Compile(fmt.Sprintf("%s([0-9]+)", w.fileNameRoot))
	if err != nil {
		return 0, err
	}
	matches := r.FindStringSubmatch(stat.Name())
	var fileNum int64
	if len(matches) > 1 {
		fileNum, err = strconv.ParseInt(matches[1], 10, 64)
		if err != nil {
			return 0, err
		}
	}
	// Close current file and delete new file if it already exists
	w.File.Close()
	var newFileName string
	if fileNum >= w.maxFiles-1 {
		newFileName = fmt.Sprintf("%s.%s", w.fileNameRoot, w.fileExt)
	} else {
		newFileName = fmt.Sprintf("%s%v.%s", w.fileNameRoot, fileNum+int64(1), w.fileExt)
	}
	newPath := filepath.Join(w.pathToFile, newFileName)
	if utils.FileExists(newPath) {
		if err = os.Remove(newPath); err != nil {
			return 0, err
		}
	}
	newFile, err := os.OpenFile(newPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0775)
	if err != nil {
		return 0, err
	}
	w.File = newFile
	return w.File.Write(p)
}

// log_level is a mapping of log levels as strings to structs from the zerolog package
var log_level = map[string]zerolog.Level{
	"INFO":  zerolog.InfoLevel,
	"PANIC": zerolog.PanicLevel,
	"FATAL": zerolog.FatalLevel,
	"ERROR": zerolog.ErrorLevel,
	"WARN":  zerolog.WarnLevel,
	"DEBUG": zerolog.DebugLevel,
	"TRACE": zerolog.TraceLevel,
}

// formatLevel colours the level column of console output
func formatLevel(i interface{}) string {
	x := strings.ToLower(fmt.Sprintf("%v", i))
	tag := strings.ToUpper("[" + x + "]")
	var msg string
	switch x {
	case "info":
		msg = color.Color(tag, "green")
	case "panic", "fatal", "error":
		msg = color.Color(tag, "red")
	case "warn", "debug":
		msg = color.Color(tag, "yellow")
	case "trace":
		msg = color.Color(tag, "magenta")
	default:
		msg = tag
	}
	return msg + "\t"
}

// InitLogger creates a new instance of the `zerolog.Logger` type. If `ConsoleOutput` is true, it will output the logs to the console as well as the logfile
func InitLogger(config *Config) (zerolog.Logger, error) {
	logPath := filepath.Join(config.LogFileDir, logFileName)
	log_file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0775)
	if err != nil {
		// try to create the .fluidd dir and try again if log dir is default log dir
		if !config.DefaultLogDir {
			return zerolog.Logger{}, err
		}
		if err = os.MkdirAll(config.LogFileDir, 0775); err != nil {
			return zerolog.Logger{}, err
		}
		log_file, err = os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0775)
		if err != nil {
			return zerolog.Logger{}, err
		}
	}
	modded_file := &moddedFileWriter{
		File:         log_file,
		maxFileSize:  config.MaxLogFileSize * 1000000, // converting to Bytes
		maxFiles:     config.MaxLogFiles,
		fileNameRoot: logFileRoot,
		fileExt:      logFileExt,
		pathToFile:   config.LogFileDir,
	}
	level, ok := log_level[config.LogLevel]
	if !ok {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if config.ConsoleOutput {
		output := zerolog.NewConsoleWriter()
		if runtime.GOOS == "windows" {
			output.Out = colorable.NewColorableStdout()
		} else {
			output.Out = os.Stderr
		}
		output.FormatLevel = formatLevel
		multi := zerolog.MultiLevelWriter(output, modded_file)
		logger = zerolog.New(multi).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(modded_file).With().Timestamp().Logger()
	}
	return logger.Level(level), nil
}

// NewSubLogger takes a `zerolog.Logger` and string for the name of the subsystem and creates a `subLogger` for this subsystem
func NewSubLogger(l *zerolog.Logger, subsystem string) *subLogger {
	sub := l.With().Str("subsystem", subsystem).Logger()
	return &subLogger{
		SubLogger: sub,
		Subsystem: subsystem,
	}
}

// LogWithErrors is a method which takes a log level and message as a string and writes the corresponding log. Returns an error if the log level doesn't exist
func (s subLogger) LogWithErrors(level, msg string) error {
	lvl, ok := log_level[level]
	if !ok {
		s.SubLogger.Error().Msgf("Log level %v not found.", level)
		return fmt.Errorf("log: Log level %v not found", level)
	}
	s.SubLogger.WithLevel(lvl).Msg(msg)
	return nil
}

// Log is a method which takes a log level and message as a string and writes the corresponding log.
func (s subLogger) Log(level, msg string) {
	_ = s.LogWithErrors(level, msg)
}
