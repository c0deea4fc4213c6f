package main

import (
	"flag"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"golang.org/x/exp/slog"

	"github.com/rawbytedev/stackstring"
	"github.com/rawbytedev/stackstring/pkg/fixedbuf"
	"github.com/rawbytedev/stackstring/pkg/logline"
)

func main() {
	profile := flag.String("profile", "mem.prof", "heap profile output path")
	iterations := flag.Int("n", 10000, "hot loop iterations")
	pprofAddr := flag.String("pprof", "", "serve net/http/pprof on this address while running")
	hold := flag.Duration("hold", 0, "keep the process alive after profiling")
	flag.Parse()

	if *pprofAddr != "" {
		go func() {
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}
	h, err := logline.NewHandler(os.Stderr, nil)
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(h)

	f, err := os.Create(*profile)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	runtime.MemProfileRate = 1

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	var buf [4096]byte
	al := fixedbuf.NewAllocator(buf[:])
	report := fixedbuf.NewString(al)
	total := 0
	for i := 0; i < *iterations; i++ {
		var line stackstring.String128
		line.Append("Event ").AppendInt(int64(i)).Append("; user ").AppendUint(1001)
		total += line.Len()
		if i < 5 {
			if _, err := report.WriteString(line.View()); err != nil {
				logger.Warn("report buffer exhausted", "err", err)
			}
			_ = report.WriteByte(';')
		}
	}

	runtime.ReadMemStats(&after)
	logger.Info("hot loop done",
		"iterations", *iterations,
		"bytes", total,
		"mallocs", after.Mallocs-before.Mallocs,
		"report", report.View(),
		"arena_used", al.Used(),
	)
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Fatal(err)
	}
	if *hold > 0 {
		time.Sleep(*hold)
	}
}
