package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = "> "

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes) every modem may emit
	UrcNewMsg         = "+CMTI:"
	UrcMessageReport  = "+CDSI:"
	UrcSignalStrength = "+CSQ:"
	UrcCall           = "RING"

	// Commands
	CmdAt              = "AT"
	CmdEchoOff         = "ATE0"
	CmdFlowControlOff  = "AT+IFC=0,0"
	CmdVerboseErrors   = "AT+CMEE=2"
	CmdIMEI            = "AT+CGSN"
	CmdICCID           = "AT+CCID"
	CmdRegistration    = "AT+CREG?"
	CmdSignalQuality   = "AT+CSQ"
	CmdClock           = "AT+CCLK?"
	CmdClockSetPattern = `AT+CCLK="%s"`

	// Information response prefixes
	RespICCID        = "+CCID:"
	RespRegistration = "+CREG:"
	RespSignal       = "+CSQ:"
	RespClock        = "+CCLK:"
)

type ResponseType int

const (
	TypeUnknown ResponseType = iota // Not claimed by a classifier
	TypeFinal                       // OK, ERROR
	TypeURC                         // Asynchronous notifications
	TypeData                        // Intermediate command output (+CSQ: ...)
	TypePrompt                      // SMS input prompt
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	case TypeData:
		return "data"
	case TypePrompt:
		return "prompt"
	default:
		return "unknown"
	}
}
