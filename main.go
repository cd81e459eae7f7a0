package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	lg "log"

	cf "github.com/blabu/nanoporeLinkService/configuration"
	"github.com/blabu/nanoporeLinkService/data"
	"github.com/blabu/nanoporeLinkService/data/sessiondata"
	"github.com/blabu/nanoporeLinkService/httpGateway"
	log "github.com/blabu/nanoporeLinkService/logWrapper"
	"github.com/blabu/nanoporeLinkService/panel"
	"github.com/blabu/nanoporeLinkService/server"
	"github.com/blabu/nanoporeLinkService/stat"
)

var confPath = flag.String("conf", "./config.yml", "Set path to config file")

const shutdownTimeout = 5 * time.Second

func initLogger(conf cf.ConfigFile) {
	log.SetVerbose(conf.Verbose)
	if conf.LogPath != "" {
		minutes := conf.SaveDuration
		if minutes == 0 {
			minutes = 60 * 24 // Раз в сутки по умолчанию
		}
		go log.GetLogger().ChangeFile(conf.LogPath, time.Duration(minutes)*time.Minute)
	}
	log.SetFlags(lg.Ldate | lg.Ltime | lg.Lshortfile)
}

func openJournal(conf cf.ConfigFile) data.ISessionJournal {
	if conf.SessionStore == "" {
		log.Info("Session journal disabled")
		return nil
	}
	journal, err := sessiondata.InitSessionDB(conf.SessionStore)
	if err != nil {
		log.Errorf("Can not open session journal %s, %v", conf.SessionStore, err)
		return nil
	}
	return journal
}

func main() {
	flag.Parse()
	sigTerm := make(chan os.Signal, 1)
	// Подписываемся на оповещение, когда операционка захочет нас прибить
	signal.Notify(sigTerm, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	log.Infof("Try read configuration file %s\n", *confPath)
	conf, err := cf.ReadConfig(*confPath)
	if err != nil {
		log.Fatal(err.Error())
	}
	initLogger(conf)
	defer log.GetLogger().StopRotation()
	conf.Show(os.Stderr)

	journal := openJournal(conf)
	st := stat.CreateStatistics()
	ctx := panel.NewContext(conf.ServerHost, conf.ServerPort)
	sink, events := server.PanelSink(ctx, conf.SinkQueueSize, server.LogSink{})
	link := server.NewListenerService(server.ListenerConfig{
		Sink:     sink,
		Stat:     st,
		Journal:  journal,
		BitOrder: conf.BitOrder(),
	})
	if conf.AutoStart {
		if err := link.Start(conf.ServerHost, conf.ServerPort); err != nil {
			log.Error(err.Error())
		}
	}

	var gateway *http.Server
	if conf.HTTPGatewayAddr != "" {
		if gateway, err = httpGateway.RunGateway(conf.HTTPGatewayAddr, httpGateway.NewGateway(link, ctx, journal)); err != nil {
			log.Errorf("Can not run http gateway at %s, %v", conf.HTTPGatewayAddr, err)
		}
	}

	<-sigTerm
	log.Info("Operation system kill server")
	if gateway != nil {
		c, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := gateway.Shutdown(c); err != nil {
			log.Warning(err.Error())
		}
		cancel()
	}
	link.Stop()
	if !link.Wait(shutdownTimeout) {
		log.Warning("Listener loops did not finish in time")
	}
	events.Close()
	if journal != nil {
		if err := journal.Close(); err != nil {
			log.Error(err.Error())
		}
	}
	log.Info("Finish link service")
}
