package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/judopay/judopay-go/pkg/judopay"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func testEvent() Event {
	return NewEvent(judopay.Receipt{
		ReceiptID: "r-1",
		JudoID:    "100200300",
		Type:      "Payment",
		Result:    "Success",
	})
}

func TestSQSPublisherSendSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   client,
		log:      discardLogger{},
	}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["receipt_id"]
	if !ok || aws.ToString(attr.StringValue) != "r-1" {
		t.Fatalf("receipt_id attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if got := aws.ToString(client.input.MessageAttributes["judo_id"].StringValue); got != "100200300" {
		t.Fatalf("judo_id attribute = %q", got)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"receipt_id":"r-1"`) {
		t.Fatalf("MessageBody missing receipt_id: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSPublisherSendError(t *testing.T) {
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://example.com/queue",
		client:   &fakeSQSClient{err: errors.New("throttled")},
		log:      discardLogger{},
	}

	err := pub.Publish(context.Background(), testEvent())
	if err == nil || !strings.Contains(err.Error(), "throttled") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestNewSQSPublisherRequiresConfig(t *testing.T) {
	if _, err := newSQSPublisher(context.Background(), PublisherConfig{ID: "q", Type: TypeSQS}, nil); err == nil {
		t.Fatalf("expected error for missing sqs block")
	}
}

func TestSQSPublisherFIFOSetsGroupAndDeduplication(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://sqs.eu-west-2.amazonaws.com/123/receipts.fifo",
		fifo:     isFIFO("https://sqs.eu-west-2.amazonaws.com/123/receipts.fifo"),
		client:   client,
		log:      discardLogger{},
	}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := aws.ToString(client.input.MessageGroupId); got != "100200300" {
		t.Fatalf("MessageGroupId = %q", got)
	}
	if got := aws.ToString(client.input.MessageDeduplicationId); got != "r-1" {
		t.Fatalf("MessageDeduplicationId = %q", got)
	}
}

func TestSQSPublisherStandardQueueOmitsFIFOFields(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "queue", queueURL: "https://example.com/queue", client: client, log: discardLogger{}}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if client.input.MessageGroupId != nil || client.input.MessageDeduplicationId != nil {
		t.Fatalf("standard queue must not carry FIFO fields")
	}
}

func TestSQSPublisherOmitsCardAndConsumerTokens(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "queue", queueURL: "https://example.com/queue", client: client, log: discardLogger{}}

	evt := NewEvent(judopay.Receipt{
		ReceiptID: "r-9",
		Result:    "Success",
		Amount:    "12.00",
		CardDetails: judopay.CardDetails{
			CardLastFour: "3436",
			CardToken:    "card-token-value",
		},
		Consumer: judopay.Consumer{
			ConsumerToken:         "consumer-token-value",
			YourConsumerReference: "consumer-1",
		},
	})
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	body := aws.ToString(client.input.MessageBody)
	for _, secret := range []string{"card-token-value", "consumer-token-value", "cardToken", "consumerToken"} {
		if strings.Contains(body, secret) {
			t.Fatalf("message body leaks %q: %s", secret, body)
		}
	}
	for _, want := range []string{`"cardLastfour":"3436"`, `"yourConsumerReference":"consumer-1"`, `"amount":12.00`} {
		if !strings.Contains(body, want) {
			t.Fatalf("message body missing %s: %s", want, body)
		}
	}
	if strings.Contains(body, "judo_id") || strings.Contains(body, "judoId") {
		t.Fatalf("absent judo id must be omitted at both levels: %s", body)
	}
}
