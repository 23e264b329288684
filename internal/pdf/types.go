// Package pdf provides PDF translation functionality including text extraction,
// structural element modeling, translation caching, and document reassembly.
package pdf

// DocumentInfo PDF 文件基本信息
type DocumentInfo struct {
	FilePath  string `json:"file_path"`   // 文件路径
	FileName  string `json:"file_name"`   // 文件名
	PageCount int    `json:"page_count"`  // 总页数
	FileSize  int64  `json:"file_size"`   // 文件大小（字节）
	IsTextPDF bool   `json:"is_text_pdf"` // 是否包含可提取文本
}
