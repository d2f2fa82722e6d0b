package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.Debug().
			Str("method", req.Method).
			Str("url", req.URL.RequestURI()).
			Str("user_agent", req.UserAgent()).
			Str("remote_addr", req.RemoteAddr).
			Msg("incoming http request")
		next.ServeHTTP(w, req)
	})
}

// LogHandler returns the tail of the log file. The size comes from the "bytes" header.
// An empty file name disables it.
func LogHandler(logFileName string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, req *http.Request) {
		if logFileName == "" {
			writeError(w, http.StatusForbidden, errors.New("log api is disabled"))
			return
		}

		bytes := 100
		if v := req.Header.Get("bytes"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				writeError(w, http.StatusBadRequest, errors.New("failed to parse int"))
				return
			}
			bytes = n
		}

		logf, err := os.Open(logFileName)
		if err != nil {
			writeError(w, http.StatusInternalServerError, errors.New("failed to get logs"))
			return
		}
		defer logf.Close()

		tail, err := readLogTail(logf, int64(bytes))
		if err != nil {
			writeError(w, http.StatusInternalServerError, errors.New("failed to get logs"))
			return
		}
		writeJSON(w, http.StatusOK, string(tail))
	}
}

// readLogTail reads at most n bytes from the end of the file.
func readLogTail(logFile *os.File, n int64) ([]byte, error) {
	info, err := logFile.Stat()
	if err != nil {
		return nil, err
	}

	offset := info.Size() - n
	if offset < 0 {
		offset = 0
	}
	if _, err := logFile.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}

	return io.ReadAll(logFile)
}
