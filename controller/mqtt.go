package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

const mqttQuiesce = 250 // milliseconds

// Bridge applies speed messages from an MQTT topic and publishes the resulting Status on <topic>/state
type Bridge struct {
	controller *Controller
	topic      string
	client     paho.Client
}

// SpeedsMessage is the payload accepted by the Bridge. Stop takes priority over Speeds
type SpeedsMessage struct {
	Speeds []int `json:"speeds"`
	Stop   bool  `json:"stop"`
}

func NewBridge(c *Controller, broker, topic string) *Bridge {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(fmt.Sprintf("stewart-%d", time.Now().UnixNano())).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	b := &Bridge{controller: c, topic: topic}
	opts.SetOnConnectHandler(b.onConnect)
	b.client = paho.NewClient(opts)

	return b
}

// onConnect subscribes again after every connect since the session is not persisted
func (b *Bridge) onConnect(client paho.Client) {
	token := client.Subscribe(b.topic, 1, b.onMessage)
	token.Wait()
	if err := token.Error(); err != nil {
		glog.Errorf("error subscribing to %s: %v", b.topic, err)
		return
	}
	glog.Infof("subscribed to %s", b.topic)
}

// StateTopic is where the Status is published after each message
func (b *Bridge) StateTopic() string {
	return b.topic + "/state"
}

// Run connects to the broker and blocks until ctx is done
func (b *Bridge) Run(ctx context.Context) error {
	token := b.client.Connect()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("error connecting to broker: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	<-ctx.Done()
	b.client.Disconnect(mqttQuiesce)
	return nil
}

func (b *Bridge) onMessage(client paho.Client, msg paho.Message) {
	state, err := b.apply(msg.Payload())
	if err != nil {
		glog.Errorf("error applying message from %s: %v", msg.Topic(), err)
		return
	}
	client.Publish(b.StateTopic(), 0, false, state)
}

// apply runs the command in payload and returns the encoded Status
func (b *Bridge) apply(payload []byte) ([]byte, error) {
	var msg SpeedsMessage
	err := json.Unmarshal(payload, &msg)
	if err != nil {
		return nil, fmt.Errorf("error decoding message: %w", err)
	}

	switch {
	case msg.Stop:
		err = b.controller.Stop()
	default:
		req := SpeedsRequest{Speeds: msg.Speeds}
		err = req.Bind(nil)
		if err != nil {
			return nil, err
		}
		err = b.controller.SetSpeeds(req.speeds())
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(b.controller.Status())
}
