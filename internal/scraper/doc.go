// Package scraper 抓取外部 HTML 頁面並擷取發票資料。
//
// 擷取流程是一串獨立的欄位讀取：先嘗試 CSS 選擇器，
// 再退回到位置（表格欄位順序、區塊第一行）與文字比對（「Total」「IVA」等標籤）。
// 不做結構驗證，找不到的欄位保持空值。
package scraper
