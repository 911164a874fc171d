package servlin

// Well-known header names and wire tokens, factored out so the parser and
// the writer spell them the same way exactly once.
const (
	headerConnection       = "Connection"
	headerContentLength    = "Content-Length"
	headerContentType      = "Content-Type"
	headerDate             = "Date"
	headerHost             = "Host"
	headerServer           = "Server"
	headerTransferEncoding = "Transfer-Encoding"
	headerExpect           = "Expect"

	tokenClose           = "close"
	tokenKeepAlive       = "keep-alive"
	tokenChunked         = "chunked"
	tokenGzip            = "gzip"
	token100Continue     = "100-continue"
	httpVersion11        = "HTTP/1.1"
)

var crlf = []byte("\r\n")

const defaultServerName = "servlin"
