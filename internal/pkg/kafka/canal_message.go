package kafka

import (
	"strconv"
)

const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// CanalMessage 定义了 Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`
	SQL      string   `json:"sql"`

	// Data 存储变更后的数据，DELETE 时为被删除的行
	Data []map[string]interface{} `json:"data"`

	// Old 存储变更前的数据，只包含发生变化的列
	Old []map[string]interface{} `json:"old"`

	SqlType   map[string]int    `json:"sqlType"`
	MysqlType map[string]string `json:"mysqlType"`
}

// canal flat message 的列值均为字符串或 null

func StrToString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func StrToUint64(v interface{}) uint64 {
	n, err := strconv.ParseUint(StrToString(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// StrToUint64Ptr null 列返回 nil
func StrToUint64Ptr(v interface{}) *uint64 {
	if v == nil {
		return nil
	}
	n, err := strconv.ParseUint(StrToString(v), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func StrToInt(v interface{}) int {
	n, err := strconv.Atoi(StrToString(v))
	if err != nil {
		return 0
	}
	return n
}

func StrToBool(v interface{}) bool {
	switch StrToString(v) {
	case "1", "true":
		return true
	}
	return false
}
