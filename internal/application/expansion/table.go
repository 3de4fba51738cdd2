// Package expansion 提供查询缩写扩展功能
package expansion

import "sort"

// Table 缩写映射表，启动时构建一次，之后只读
type Table struct {
	forward map[string][]string
	reverse map[string][]string
	keys    []string
}

// NewTable 从正向映射构建缩写表及其反向索引
func NewTable(forward map[string][]string) *Table {
	t := &Table{
		forward: forward,
		reverse: make(map[string][]string),
		keys:    make([]string, 0, len(forward)),
	}
	for key := range forward {
		t.keys = append(t.keys, key)
	}
	// 保证遍历顺序确定
	sort.Strings(t.keys)
	for _, key := range t.keys {
		for _, full := range forward[key] {
			t.reverse[full] = append(t.reverse[full], key)
		}
	}
	return t
}

// Forward 返回缩写键对应的全称列表，未知键返回 nil
func (t *Table) Forward(key string) []string {
	return t.forward[key]
}

// Reverse 返回全称对应的缩写键列表，未知全称返回 nil
func (t *Table) Reverse(full string) []string {
	return t.reverse[full]
}

// Keys 返回所有缩写键，按字典序排列
func (t *Table) Keys() []string {
	return t.keys
}

// Len 返回缩写键数量
func (t *Table) Len() int {
	return len(t.keys)
}

// DefaultTable 返回内置的业务与制造领域缩写表
func DefaultTable() *Table {
	return NewTable(map[string][]string{
		// 财务
		"ap":   {"accounts payable", "account payable", "a/p"},
		"ar":   {"accounts receivable", "account receivable", "a/r"},
		"gl":   {"general ledger", "g/l"},
		"po":   {"purchase order", "p.o."},
		"pr":   {"purchase requisition", "purchase request"},
		"roi":  {"return on investment"},
		"cogs": {"cost of goods sold"},
		"p&l":  {"profit and loss", "profit & loss", "p/l"},

		// 制造
		"qc":    {"quality control"},
		"qa":    {"quality assurance"},
		"sop":   {"standard operating procedure", "standard operating procedures"},
		"gmp":   {"good manufacturing practice", "good manufacturing practices"},
		"haccp": {"hazard analysis critical control point", "hazard analysis and critical control points"},
		"bom":   {"bill of materials", "bill of material"},
		"wip":   {"work in progress", "work in process"},
		"mrp":   {"material requirements planning", "material requirement planning"},
		"erp":   {"enterprise resource planning"},
		"oee":   {"overall equipment effectiveness"},
		"kpi":   {"key performance indicator", "key performance indicators"},

		// 质量与合规
		"fda":  {"food and drug administration"},
		"iso":  {"international organization for standardization"},
		"fsma": {"food safety modernization act"},
		"cgmp": {"current good manufacturing practice", "current good manufacturing practices"},
		"spc":  {"statistical process control"},
		"capa": {"corrective and preventive action", "corrective action preventive action"},

		// 供应链
		"sku":  {"stock keeping unit", "stock-keeping unit"},
		"fifo": {"first in first out", "first-in-first-out"},
		"lifo": {"last in first out", "last-in-first-out"},
		"jit":  {"just in time", "just-in-time"},
		"vmi":  {"vendor managed inventory", "vendor-managed inventory"},
		"3pl":  {"third party logistics", "third-party logistics"},
		"rfq":  {"request for quote", "request for quotation"},
		"rma":  {"return merchandise authorization", "return material authorization"},

		// 人力资源
		"hr":   {"human resources", "human resource"},
		"pto":  {"paid time off"},
		"fmla": {"family medical leave act", "family and medical leave act"},

		// IT
		"it":  {"information technology"},
		"api": {"application programming interface"},
		"ui":  {"user interface"},
		"ux":  {"user experience"},

		// 其他通用缩写
		"r&d":   {"research and development", "research & development"},
		"ceo":   {"chief executive officer"},
		"cfo":   {"chief financial officer"},
		"cmo":   {"chief marketing officer"},
		"coo":   {"chief operating officer"},
		"vp":    {"vice president"},
		"mgr":   {"manager"},
		"dept":  {"department"},
		"mfg":   {"manufacturing", "manufactured"},
		"pkg":   {"package", "packaging"},
		"whse":  {"warehouse"},
		"inv":   {"inventory"},
		"qty":   {"quantity"},
		"spec":  {"specification", "specifications"},
		"cert":  {"certificate", "certification"},
		"doc":   {"document", "documentation"},
		"rpt":   {"report"},
		"std":   {"standard"},
		"proc":  {"procedure", "process"},
		"mgmt":  {"management"},
		"maint": {"maintenance"},
		"equip": {"equipment"},
		"matl":  {"material"},
		"prod":  {"product", "production"},
		"mfr":   {"manufacturer"},
		"dist":  {"distribution", "distributor"},
		"cust":  {"customer"},
		"acct":  {"account"},
		"amt":   {"amount"},
		"avg":   {"average"},
		"min":   {"minimum"},
		"max":   {"maximum"},
		"temp":  {"temperature"},
		"exp":   {"expiration", "expired", "experience"},
		"rcvd":  {"received"},
		"reqd":  {"required"},
		"apvd":  {"approved"},
		"rjct":  {"reject", "rejected"},
	})
}
