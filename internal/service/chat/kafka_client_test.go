package chat

import "testing"

func TestConsumerGroupIDIsPerInstance(t *testing.T) {
	// 推送扇出要求每个实例各自消费全量消息，
	// 不同实例（machineId 不同）必须落在不同的消费组
	first := consumerGroupID(1)
	second := consumerGroupID(2)
	if first == second {
		t.Fatalf("instances must not share a consumer group: %q", first)
	}
	if consumerGroupID(1) != first {
		t.Fatal("group id must be stable for the same instance")
	}
}
