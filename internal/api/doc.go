// Package api 處理 HTTP 請求路由和處理。
//
// handlers 子包把 HTTP 請求轉換為服務調用，並把結果與錯誤轉換回 JSON 響應；
// 這裡只負責組裝路由與共用中間件。
package api
