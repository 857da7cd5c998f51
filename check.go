package edgex

import "strings"

//
// Author: 陈哈哈 chenyongjia@parkingwang.com, yoojiachen@gmail.com
//

// 节点ID会被用于MQTT Topic，不能为空，不能包含Topic分隔符和通配符
func checkIdFormat(name, id string) string {
	if "" == id || strings.ContainsAny(id, "/+#") {
		log.Panicf("%s中不能包含'/', '+', '#'字符: [%s]", name, id)
	}
	return id
}

func checkRequired(value interface{}, message string) {
	switch v := value.(type) {
	case string:
		if "" == v {
			log.Panic(message)
		}

	case []string:
		if 0 == len(v) {
			log.Panic(message)
		}

	default:
		if nil == value {
			log.Panic(message)
		}
	}

}
