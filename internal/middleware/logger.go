package middleware

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Logger returns a Fiber middleware that only logs slow or failed requests,
// to keep the log volume of chatty realtime clients down.
func Logger() fiber.Handler {
	return logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		Output: &filteredWriter{
			dest:             os.Stdout,
			slowThresholdMs:  500,
			errorStatusFloor: 400,
		},
	})
}

// filteredWriter discards log lines for fast, successful requests. It parses
// the status and latency from the line format:
//
//	"15:04:05 | 200 | 1.23ms | GET /path\n"
type filteredWriter struct {
	dest             io.Writer
	slowThresholdMs  float64
	errorStatusFloor int
}

func (w *filteredWriter) Write(p []byte) (n int, err error) {
	parts := strings.Split(string(p), " | ")
	if len(parts) < 3 {
		return w.dest.Write(p) // Can't parse — write anyway
	}

	status, _ := strconv.Atoi(strings.TrimSpace(parts[1]))
	if status >= w.errorStatusFloor {
		return w.dest.Write(p)
	}

	dur, err2 := time.ParseDuration(strings.TrimSpace(parts[2]))
	if err2 == nil && dur.Seconds()*1000 >= w.slowThresholdMs {
		return w.dest.Write(p)
	}

	// Discard (fast + successful)
	return len(p), nil
}
