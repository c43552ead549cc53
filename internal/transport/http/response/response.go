package response

import "github.com/gin-gonic/gin"

const (
	CodeBadRequest      = 40000
	CodeNotFound        = 40400
	CodeTooLarge        = 41300
	CodeUnsupportedType = 41500
	CodeInternalServer  = 50000
	CodeExtraction      = 50001
	CodeUpstream        = 50200
	CodeParse           = 50201
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON writes data as the whole response body.
func JSON(c *gin.Context, httpStatus int, data interface{}) {
	c.JSON(httpStatus, data)
}

// Message writes a {message, ...} acknowledgement.
func Message(c *gin.Context, message string, fields gin.H) {
	body := gin.H{"message": message}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(200, body)
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.AbortWithStatusJSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
