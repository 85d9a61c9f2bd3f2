// based on https://www.hyperledger.org/blog/2019/02/19/hyperledger-sawtooth-events-in-go-2
package events

import (
	"errors"
	"sort"
	"time"

	"github.com/hyperledger/sawtooth-sdk-go/messaging"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/client_event_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/events_pb2"
	"github.com/hyperledger/sawtooth-sdk-go/protobuf/validator_pb2"
	"github.com/pebbe/zmq4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
)

// Event is a notification emitted by a transaction processor.
type Event struct {
	Type       string
	Attributes map[string]string
	Data       []byte
}

type Handler func(event Event) error

const (
	pollInterval              = 100 * time.Millisecond
	defaultUnsubscribeTimeout = 5 * time.Second
)

// EventListener subscribes to validator events over ZMQ and passes each one
// to the handler registered for its type. Handlers run on the listening
// goroutine, in the order the validator emitted the events.
type EventListener struct {
	log                *zap.Logger
	connection         messaging.Connection
	validatorUrl       string
	closerFunc         []func() error
	handlers           map[string]Handler
	stopListening      chan struct{}
	done               chan error
	unsubscribeTimeout time.Duration
}

// NewEventListener takes the validator component endpoint, e.g. tcp://validator:4004.
func NewEventListener(logger *zap.Logger, validatorUrl string) *EventListener {
	return &EventListener{
		log:                logger,
		validatorUrl:       validatorUrl,
		handlers:           make(map[string]Handler),
		unsubscribeTimeout: defaultUnsubscribeTimeout,
	}
}

func (e *EventListener) Start() error {
	if len(e.handlers) == 0 {
		return errors.New("no event handlers set")
	}

	zmqContext, err := zmq4.NewContext()
	if err != nil {
		return err
	}

	zmqConnection, err := messaging.NewConnection(
		zmqContext,
		zmq4.DEALER,
		e.validatorUrl,
		false,
	)
	if err != nil {
		return err
	}
	e.connection = zmqConnection

	eventTypes := make([]string, 0, len(e.handlers))
	for eventType := range e.handlers {
		eventTypes = append(eventTypes, eventType)
	}
	sort.Strings(eventTypes)
	if err := e.subscribe(eventTypes); err != nil {
		e.connection.Close()
		return errors.New("failed to subscribe to the events: " + err.Error())
	}

	// From here on the socket belongs to the listening goroutine.
	e.stopListening = make(chan struct{})
	e.done = make(chan error, 1)
	go func(stop chan struct{}, done chan error) {
		done <- e.listenLoop(stop)
	}(e.stopListening, e.done)

	return nil
}

// Stop waits for the listening goroutine to unsubscribe and close the
// connection. It is a no-op on a listener that was never started.
func (e *EventListener) Stop() error {
	if e.stopListening == nil {
		return nil
	}
	close(e.stopListening)
	err := <-e.done
	e.stopListening = nil
	e.log.Info("event listener stopped")
	return err
}

func (e *EventListener) listenLoop(stop chan struct{}) error {
	e.log.Info("start listening on blockchain events", zap.String("validator", e.validatorUrl))

	poller := zmq4.NewPoller()
	poller.Add(e.connection.Socket(), zmq4.POLLIN)

	var loopErr error
	for loopErr == nil {
		select {
		case <-stop:
			return e.shutdown(nil)
		default:
		}

		polled, err := poller.Poll(pollInterval)
		if err != nil {
			loopErr = err
			break
		}
		if len(polled) == 0 {
			continue
		}

		_, message, err := e.connection.RecvMsg()
		if err != nil {
			loopErr = err
			break
		}
		// Check if received is a client event message
		if message.MessageType != validator_pb2.Message_CLIENT_EVENTS {
			e.log.Warn("received a message not requested for", zap.Stringer("type", message.MessageType))
			continue
		}
		if err := e.dispatch(message.Content); err != nil {
			e.log.Error("failed to read the event list: " + err.Error())
		}
	}

	e.log.Error("event listener stopped: " + loopErr.Error())
	<-stop
	return e.shutdown(loopErr)
}

// shutdown runs the closers and closes the connection. It must only be
// called from the listening goroutine.
func (e *EventListener) shutdown(allErr error) error {
	if err := e.connection.Socket().SetRcvtimeo(e.unsubscribeTimeout); err != nil {
		allErr = multierr.Append(allErr, err)
	}
	for _, closer := range e.closerFunc {
		if err := closer(); err != nil {
			allErr = multierr.Append(allErr, err)
		}
	}
	e.closerFunc = nil
	e.connection.Close()
	return allErr
}

// dispatch hands every event of a serialized EventList to its handler.
func (e *EventListener) dispatch(content []byte) error {
	eventList := events_pb2.EventList{}
	if err := proto.Unmarshal(content, &eventList); err != nil {
		return err
	}

	for _, event := range eventList.Events {
		e.log.Debug("event received: " + event.EventType)

		handler, ok := e.handlers[event.EventType]
		if !ok {
			e.log.Warn("handler missing for the event: " + event.EventType)
			continue
		}

		if err := handler(toEvent(event)); err != nil {
			e.log.Error("error when handling the event: "+err.Error(), zap.String("type", event.EventType))
		}
	}
	return nil
}

func toEvent(event *events_pb2.Event) Event {
	attributes := make(map[string]string, len(event.GetAttributes()))
	for _, a := range event.GetAttributes() {
		attributes[a.GetKey()] = a.GetValue()
	}
	return Event{
		Type:       event.GetEventType(),
		Attributes: attributes,
		Data:       event.GetData(),
	}
}

func (e *EventListener) SetHandler(eventType string, handler Handler) {
	e.handlers[eventType] = handler
}

func (e *EventListener) subscribe(eventTypes []string) error {
	subscriptions := make([]*events_pb2.EventSubscription, len(eventTypes))
	for i, eventType := range eventTypes {
		subscriptions[i] = &events_pb2.EventSubscription{EventType: eventType}
	}
	request := client_event_pb2.ClientEventsSubscribeRequest{
		Subscriptions: subscriptions,
	}

	serializedReq, err := proto.Marshal(&request)
	if err != nil {
		return err
	}
	// Send the subscription request, get a correlation id
	// from the SDK
	corrId, err := e.connection.SendNewMsg(
		validator_pb2.Message_CLIENT_EVENTS_SUBSCRIBE_REQUEST,
		serializedReq,
	)
	if err != nil {
		return err
	}
	e.log.Debug("waiting for receiving the subscription confirmation...")
	// Wait for response of message with specific correlation id
	_, response, err := e.connection.RecvMsgWithId(corrId)
	if err != nil {
		return err
	}

	subsResponse := client_event_pb2.ClientEventsSubscribeResponse{}
	if err := proto.Unmarshal(response.Content, &subsResponse); err != nil {
		return err
	}
	if subsResponse.Status != client_event_pb2.ClientEventsSubscribeResponse_OK {
		return errors.New("client subscription failed, subscription status: " + subsResponse.String())
	}

	e.closerFunc = append(e.closerFunc, e.unsubscribe)
	e.log.Info("successfully subscribed to the events", zap.Strings("types", eventTypes))

	return nil
}

func (e *EventListener) unsubscribe() error {
	request := client_event_pb2.ClientEventsUnsubscribeRequest{}
	serializedReq, err := proto.Marshal(&request)
	if err != nil {
		return err
	}

	corrId, err := e.connection.SendNewMsg(
		validator_pb2.Message_CLIENT_EVENTS_UNSUBSCRIBE_REQUEST,
		serializedReq,
	)
	if err != nil {
		return err
	}
	_, response, err := e.connection.RecvMsgWithId(corrId)
	if err != nil {
		return err
	}

	unsubsResponse := client_event_pb2.ClientEventsUnsubscribeResponse{}
	if err := proto.Unmarshal(response.Content, &unsubsResponse); err != nil {
		return err
	}
	if unsubsResponse.Status != client_event_pb2.ClientEventsUnsubscribeResponse_OK {
		return errors.New("client couldn't unsubscribe successfully, status: " + unsubsResponse.String())
	}

	return nil
}
