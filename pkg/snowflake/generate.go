package snowflake

import (
	"errors"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// GeneratorType 区分不同实体的 ID 序列，便于排查问题时按前缀定位来源
type GeneratorType int

const (
	GeneratorTypeRecord GeneratorType = iota // 考勤记录
	GeneratorTypePeriod                      // 考勤/薪资周期
	GeneratorTypeAudit                       // 审计日志
	GeneratorTypeMessage                     // 队列消息
)

var (
	node *snowflake.Node
	once sync.Once

	errInvalidMachineID   = errors.New("invalid snowflake machine id")
	errGeneratorUninitial = errors.New("snowflake generator is not initialized")
)

func Init(machineID, dataCenterID int64) error {
	var initErr error

	once.Do(func() {
		if machineID < 0 || machineID > 31 {
			initErr = errInvalidMachineID
			return
		}
		nodeID := (dataCenterID << 5) | machineID // datacenterID 和 machineID 都是 0~31

		var err error
		node, err = snowflake.NewNode(nodeID)

		if err != nil {
			initErr = err
			return
		}
	})

	return initErr
}

// NextID 生成下一个 ID。generatorType 目前仅用于语义区分，所有类型共享同一个节点序列
func NextID(generatorType GeneratorType) (int64, error) {
	if node == nil {
		return 0, errGeneratorUninitial
	}

	_ = generatorType
	return node.Generate().Int64(), nil
}
