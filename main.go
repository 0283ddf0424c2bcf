package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path"
	"runtime"
	"syscall"
	"time"

	"github.com/tsdiag/pcrdelta/compare"
	"github.com/tsdiag/pcrdelta/configure"
	"github.com/tsdiag/pcrdelta/input"
	"github.com/tsdiag/pcrdelta/protocol/api"

	log "github.com/sirupsen/logrus"
)

var VERSION = "master"

func startAPI() {
	apiAddr := configure.Config.GetString("api_addr")
	if apiAddr == "" {
		return
	}

	opListen, err := net.Listen("tcp", apiAddr)
	if err != nil {
		log.Fatal(err)
	}
	opServer := api.NewServer()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("HTTP-API server panic: ", r)
			}
		}()
		log.Info("HTTP-API listen On ", apiAddr)
		opServer.Serve(opListen)
	}()
}

func handleSignals(session *compare.Session) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-c
		log.Info("received signal: ", sig)
		session.Stop()
	}()
}

func init() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := path.Base(f.File)
			return fmt.Sprintf("%s()", f.Function), fmt.Sprintf(" %s:%d", filename, f.Line)
		},
	})
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Error("pcrdelta panic: ", r)
			time.Sleep(1 * time.Second)
			os.Exit(1)
		}
	}()

	log.Infof(`
                       _      _ _
     _ __   ___ _ __ __| | ___| | |_ __ _
    | '_ \ / __| '__/ _| |/ _ \ | __/ _| |
    | |_) | (__| | | (_| |  __/ | || (_| |
    | .__/ \___|_|  \__,_|\___|_|\__\__,_|
    |_|
        version: %s
	`, VERSION)

	configure.Parse()

	specs := configure.Inputs()
	args := &compare.Args{
		OutputFile:      configure.Config.GetString("output_file"),
		CSVSeparator:    configure.Config.GetString("csv_separator"),
		LatencyMs:       configure.Config.GetInt64("latency"),
		BufferPackets:   configure.Config.GetInt("buffer_packets"),
		MaxInputPackets: configure.Config.GetInt("max_input_packets"),
		AlignMs:         configure.Config.GetInt64("align_ms"),
		Watermark:       configure.Config.GetInt("watermark"),
	}
	for _, spec := range specs {
		args.Inputs = append(args.Inputs, input.New(spec))
	}

	session, err := compare.NewSession(args)
	if err != nil {
		log.Fatal(err)
	}

	if err := session.Start(); err != nil {
		log.Fatal(err)
	}

	startAPI()
	handleSignals(session)

	session.WaitForTermination()
	if !session.Success() {
		os.Exit(1)
	}
}
