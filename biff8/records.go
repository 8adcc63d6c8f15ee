// Package biff8 contains the BIFF8 record-type constants (sids) used in the
// Workbook stream of legacy .xls files.
package biff8

// Every BIFF8 record starts with a 2-byte little-endian sid followed by a
// 2-byte payload length.  The values below follow [MS-XLS] section 2.3 and
// the OpenOffice excelfileformat.pdf record index.
const (
	// ── Substream framing ─────────────────────────────────────────────────────
	BOF      = 0x0809
	EOF      = 0x000A
	Continue = 0x003C
	Index    = 0x020B
	DBCell   = 0x00D7

	// ── Workbook globals ──────────────────────────────────────────────────────
	BoundSheet = 0x0085
	CodePage   = 0x0042
	DateMode   = 0x0022
	ExtSST     = 0x00FF
	Font       = 0x0031
	Format     = 0x041E
	SST        = 0x00FC
	Style      = 0x0293
	Window1    = 0x003D
	XF         = 0x00E0

	// ── Calculation settings ──────────────────────────────────────────────────
	CalcCount  = 0x000C
	CalcMode   = 0x000D
	Delta      = 0x0010
	Iteration  = 0x0011
	RefMode    = 0x000F
	SaveRecalc = 0x005F
	Uncalced   = 0x005E

	// ── Sheet settings ────────────────────────────────────────────────────────
	DefaultRowHeight = 0x0225
	DefColWidth      = 0x0055
	Dimensions       = 0x0200
	GridSet          = 0x0082
	Guts             = 0x0080
	PrintGridlines   = 0x002B
	PrintHeaders     = 0x002A
	StandardWidth    = 0x0099
	WSBool           = 0x0081

	// ── Page settings block ───────────────────────────────────────────────────
	BottomMargin         = 0x0029
	Bitmap               = 0x00E9
	Footer               = 0x0015
	HCenter              = 0x0083
	Header               = 0x0014
	HeaderFooter         = 0x089C
	HorizontalPageBreaks = 0x001B
	LeftMargin           = 0x0026
	PLS                  = 0x004D
	PrintSize            = 0x0033
	RightMargin          = 0x0027
	Setup                = 0x00A1
	TopMargin            = 0x0028
	VCenter              = 0x0084
	VerticalPageBreaks   = 0x001A

	// ── Protection ────────────────────────────────────────────────────────────
	ObjProtect  = 0x0063
	Password    = 0x0013
	Protect     = 0x0012
	ScenProtect = 0x00DD

	// ── Columns, rows and cells ───────────────────────────────────────────────
	ColInfo  = 0x007D
	Row      = 0x0208
	Array    = 0x0221
	Blank    = 0x0201
	BoolErr  = 0x0205
	Formula  = 0x0006
	Label    = 0x0204
	LabelSST = 0x00FD
	MulBlank = 0x00BE
	MulRK    = 0x00BD
	Number   = 0x0203
	RK       = 0x027E
	RString  = 0x00D6
	ShrFmla  = 0x04BC
	String   = 0x0207
	Table    = 0x0236

	// ── Drawing, objects and notes ────────────────────────────────────────────
	MsoDrawing = 0x00EC
	Note       = 0x001C
	Obj        = 0x005D
	TxO        = 0x01B6

	// ── View settings ─────────────────────────────────────────────────────────
	Pane           = 0x0041
	SCL            = 0x00A0
	Selection      = 0x001D
	UserSViewBegin = 0x01AA
	UserSViewEnd   = 0x01AB
	Window2        = 0x023E

	// ── Trailing sheet records ────────────────────────────────────────────────
	CondFmt    = 0x01B0
	CF         = 0x01B1
	DVal       = 0x01B2
	DV         = 0x01BE
	HLink      = 0x01B8
	MergeCells = 0x00E5
	PhoneticPr = 0x00EF
	SheetExt   = 0x0862
	Feat       = 0x0868
)

// BOF substream types (the dt field of the BOF record).
const (
	BOFGlobals   = 0x0005
	BOFVBModule  = 0x0006
	BOFWorksheet = 0x0010
	BOFChart     = 0x0020
	BOFMacro     = 0x0040
)

// BIFF8 is the vers field value written in BOF records of BIFF8 files.
const BIFF8 = 0x0600

// MaxRecordLen is the largest payload a single BIFF8 record may carry.
// Longer payloads continue in CONTINUE records.
const MaxRecordLen = 8224
