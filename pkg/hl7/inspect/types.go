package inspect

// MessageCode is the message code of MSH-9.1.
type MessageCode string

// Message codes returned by MessageType. Any other code is returned as read.
const (
	MessageTypeADT MessageCode = "ADT"
	MessageTypeORU MessageCode = "ORU"
	MessageTypeACK MessageCode = "ACK"
)

// EventCode is the event code of MSH-9.2.
type EventCode string

// Event codes returned by TriggerEvent.
const (
	TriggerA01 EventCode = "A01"
	TriggerA08 EventCode = "A08"
	TriggerR01 EventCode = "R01"
)

// MSH field positions.
const (
	FieldSendingApplication   = 3
	FieldSendingFacility      = 4
	FieldReceivingApplication = 5
	FieldReceivingFacility    = 6
	FieldDateTime             = 7
	FieldMessageType          = 9
	FieldControlID            = 10
	FieldProcessingID         = 11
	FieldVersion              = 12
)

// Endpoint is an application/facility pair from the header.
type Endpoint struct {
	Application string
	Facility    string
}
