package experts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDiagnosis_EnglishLabels(t *testing.T) {
	text := `The datanode1 process terminated unexpectedly.

Root cause: datanode1 lost its heartbeat after an OOM kill
Evidence:
- ERROR heartbeat expired for datanode1
- NumDeadDataNodes=1 in namenode metrics
Fix steps:
1. Restart the datanode daemon on datanode1
2. Verify the node rejoins with hdfs dfsadmin -report
Confidence: 0.9`

	d := ExtractDiagnosis(text)
	assert.Equal(t, "datanode1 lost its heartbeat after an OOM kill", d.RootCause)
	assert.Equal(t, []string{
		"ERROR heartbeat expired for datanode1",
		"NumDeadDataNodes=1 in namenode metrics",
	}, d.Evidence)
	assert.Equal(t, []string{
		"Restart the datanode daemon on datanode1",
		"Verify the node rejoins with hdfs dfsadmin -report",
	}, d.FixSteps)
	assert.Equal(t, 0.9, d.Confidence)
	assert.Equal(t, text, d.DiagnosisText)
}

func TestExtractDiagnosis_ChineseLabels(t *testing.T) {
	text := "根本原因：DataNode磁盘写满导致进程退出\n" +
		"证据：\n- No space left on device\n- remaining capacity 0\n" +
		"修复步骤：\n1. 清理磁盘空间\n2. 重启DataNode\n" +
		"置信度：85%"

	d := ExtractDiagnosis(text)
	assert.Equal(t, "DataNode磁盘写满导致进程退出", d.RootCause)
	require.Len(t, d.Evidence, 2)
	assert.Equal(t, "No space left on device", d.Evidence[0])
	require.Len(t, d.FixSteps, 2)
	assert.Equal(t, "清理磁盘空间", d.FixSteps[0])
	assert.Equal(t, 0.85, d.Confidence)
}

func TestExtractDiagnosis_PercentConfidence(t *testing.T) {
	d := ExtractDiagnosis("Confidence: 75%")
	assert.Equal(t, 0.75, d.Confidence)

	d = ExtractDiagnosis("Confidence: 75")
	assert.Equal(t, 0.75, d.Confidence)

	d = ExtractDiagnosis("Confidence: 0.6")
	assert.Equal(t, 0.6, d.Confidence)
}

func TestExtractDiagnosis_Defaults(t *testing.T) {
	d := ExtractDiagnosis("The cluster appears degraded but I cannot isolate why.")

	assert.Equal(t, placeholderUnspecified, d.RootCause)
	assert.Equal(t, []string{placeholderSeeText}, d.Evidence)
	assert.Equal(t, []string{placeholderSeeText}, d.FixSteps)
	assert.Equal(t, defaultConfidence, d.Confidence)
}

func TestExtractDiagnosis_EvidenceCapped(t *testing.T) {
	text := "Evidence:\n- a\n- b\n- c\n- d\n- e\n- f\n- g"
	d := ExtractDiagnosis(text)
	assert.Len(t, d.Evidence, maxEvidence)
}

func TestExtractDiagnosis_SectionWithoutMarkersBecomesSingleItem(t *testing.T) {
	d := ExtractDiagnosis("Evidence: the namenode log shows repeated SafeModeException entries")
	assert.Equal(t, []string{"the namenode log shows repeated SafeModeException entries"}, d.Evidence)
}

func TestExtractDiagnosis_NeverPanics(t *testing.T) {
	for _, text := range []string{"", "{}", "Root cause:", "置信度：not-a-number", "Confidence: 99999"} {
		d := ExtractDiagnosis(text)
		require.NotNil(t, d)
		assert.GreaterOrEqual(t, d.Confidence, 0.0)
		assert.LessOrEqual(t, d.Confidence, 1.0)
	}
}
