package answer

import (
	"fmt"
	"strings"

	"sop-assistant-api/internal/application/retrieval"
)

// buildSystemPrompt 构建系统提示词，包含回答规范与查询扩展说明
func buildSystemPrompt(result *retrieval.Result) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant that answers questions based on Standard Operating Procedures (SOPs).")
	if note := retrieval.ExpansionNote(result); note != "" {
		b.WriteString("\n")
		b.WriteString(note)
	}
	b.WriteString(`

Instructions:
1. Answer the question based ONLY on the provided SOP context
2. Be specific and cite the relevant SOP titles when referencing information
3. If the context doesn't contain enough information to fully answer the question, say so
4. Structure your answer clearly with bullet points or numbered lists when appropriate
5. For questions about processes or lifecycles, list the steps in order`)
	return b.String()
}

// buildUserPrompt 构建用户消息，包含检索上下文与原始问题
func buildUserPrompt(question string, result *retrieval.Result) string {
	return fmt.Sprintf("Context from SOPs:\n%s\n\nQuestion: %s",
		retrieval.BuildPromptContext(result.Passages), question)
}
