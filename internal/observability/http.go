package observability

import "github.com/gin-gonic/gin"

// RequestMeta identifies the client behind a request for event envelopes.
type RequestMeta struct {
	DeviceID  string
	RequestID string
	IP        string
}

// RequestMetaFrom reads the device and request headers; the IP honours
// the engine's trusted proxy settings.
func RequestMetaFrom(c *gin.Context) RequestMeta {
	return RequestMeta{
		DeviceID:  c.GetHeader("X-Device-Id"),
		RequestID: c.GetHeader("X-Request-Id"),
		IP:        c.ClientIP(),
	}
}
