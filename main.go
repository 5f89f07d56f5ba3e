package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juju/errors"

	"github.com/zhukovaskychina/xflatdb/logger"
	"github.com/zhukovaskychina/xflatdb/server/audit"
	"github.com/zhukovaskychina/xflatdb/server/conf"
	"github.com/zhukovaskychina/xflatdb/server/core/engine"
	"github.com/zhukovaskychina/xflatdb/server/core/manager"
)

const help = `
******************************************************************
*  xflatdb  flat-file SQL engine
*  -configPath   ini config file (default conf/my.ini)
*  -user         name recorded in the audit log
*  statements end with ';' optionally, EXIT quits
******************************************************************
`

func main() {
	var configPath, user string
	flag.StringVar(&configPath, "configPath", conf.DefaultConfigFile, "config file path")
	flag.StringVar(&user, "user", os.Getenv("USER"), "session user for the audit log")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), help)
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(configPath, user, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, errors.ErrorStack(err))
		os.Exit(1)
	}
}

func run(configPath, user string, in io.Reader, out io.Writer) error {
	cfg, err := conf.NewCfg().Load(&conf.CommandLineArgs{ConfigPath: configPath})
	if err != nil {
		return errors.Annotate(err, "load config")
	}

	logConfig := logger.LogConfig{
		ErrorLogPath: cfg.LogError,
		InfoLogPath:  cfg.LogInfos,
		LogLevel:     cfg.LogLevel,
		Quiet:        true,
	}
	if err := logger.InitLogger(logConfig); err != nil {
		return errors.Annotate(err, "init logger")
	}
	logger.Infof("config loaded from %s, data dir %s", configPath, cfg.DataDir)

	storage, err := manager.NewStorageManager(cfg)
	if err != nil {
		return errors.Annotate(err, "open storage")
	}
	defer storage.Close()

	var recorder *audit.Recorder
	if cfg.AuditEnabled {
		recorder = audit.NewRecorder(cfg.AuditLogPath)
		recordEvent(recorder, user, audit.EventSessionOpen)
		defer recordEvent(recorder, user, audit.EventSessionClose)
	}

	qe := engine.NewQueryEngine(cfg, storage, manager.NewLockManager(), manager.NewIndexManager())
	repl(qe, cfg.Prompt, in, out)
	return nil
}

func recordEvent(recorder *audit.Recorder, user, event string) {
	if err := recorder.Record(user, event, "127.0.0.1"); err != nil {
		logger.Warnf("audit: %v", err)
	}
}

func repl(qe *engine.QueryEngine, prompt string, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(strings.TrimSuffix(line, ";"), "EXIT") {
			break
		}
		if line != "" {
			fmt.Fprintln(out, qe.Execute(line).String())
		}
		fmt.Fprint(out, prompt)
	}
	fmt.Fprintln(out)
}
