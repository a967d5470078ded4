// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 包含請求 ID、結構化存取日誌以及可選的 JWT 驗證。
package middleware
