package middleware

import (
	"net/http"
	"strings"

	"coach_chat_server/pkg/errorx"
	"coach_chat_server/pkg/util/jwt"

	"github.com/gin-gonic/gin"
)

// CtxUserIdKey 认证通过后存入 gin 上下文的用户 ID 键名
const CtxUserIdKey = "user_id"

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户 ID 存入上下文
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 获取 Token
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "请先登录",
			})
			return
		}

		// 2. 解析 Bearer Token
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "Token 格式错误，请使用 Bearer Token",
			})
			return
		}

		// 3. 验证 Token
		claims, err := jwt.ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "Token 已过期或无效，请重新登录",
			})
			return
		}

		// 4. 验证是否为 Access Token
		if claims.Subject != "access_token" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code": errorx.CodeUnauthorized,
				"msg":  "请使用 Access Token 访问此接口",
			})
			return
		}

		// 5. 将用户 ID 存入上下文，供后续 Handler 使用
		c.Set(CtxUserIdKey, claims.UserID)
		c.Next()
	}
}

// GetUserId 从 gin 上下文取出认证用户 ID
// 未经过 JWTAuth 的路由返回 0 和 false
func GetUserId(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxUserIdKey)
	if !ok {
		return 0, false
	}
	userId, ok := v.(int64)
	return userId, ok
}
