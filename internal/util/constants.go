package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeImage       = "image/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"
)

const (
	MimeCSV  = "text/csv"
	MimeJSON = "application/json"
)

// 展示层约定：表格内数组用逗号连接，CSV 单元格内用分号，避免与列分隔符冲突
const (
	DisplayJoinSeparator = ", "
	CSVCellJoinSeparator = "; "
)
