package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/sirupsen/logrus"
)

// Standalone broker for bench setups, with a debug tap on the controller
// topics.
func main() {
	address := flag.String("addr", ":1883", "tcp listen address")
	topic := flag.String("topic", "zoneheat/#", "topic filter to log")
	flag.Parse()

	server := mqtt.New(&mqtt.Options{
		InlineClient: true,
	})
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Allow all connections.
	_ = server.AddHook(new(auth.AllowHook), nil)

	tcp := listeners.NewTCP(listeners.Config{ID: "t1", Address: *address})
	err := server.AddListener(tcp)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		err := server.Serve()
		if err != nil {
			log.Fatal(err)
		}
	}()

	err = server.Subscribe(*topic, 1, func(cl *mqtt.Client, sub packets.Subscription, pk packets.Packet) {
		server.Log.Info("message", "topic", pk.TopicName, "payload", string(pk.Payload))
	})
	if err != nil {
		logrus.Error(err)
	}

	<-ctx.Done()
	server.Close()
}
