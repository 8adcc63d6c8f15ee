package biff8

import "fmt"

var names = map[uint16]string{
	BOF: "BOF", EOF: "EOF", Continue: "CONTINUE", Index: "INDEX", DBCell: "DBCELL",

	BoundSheet: "BOUNDSHEET", CodePage: "CODEPAGE", DateMode: "DATEMODE", ExtSST: "EXTSST",
	Font: "FONT", Format: "FORMAT", SST: "SST", Style: "STYLE", Window1: "WINDOW1", XF: "XF",

	CalcCount: "CALCCOUNT", CalcMode: "CALCMODE", Delta: "DELTA", Iteration: "ITERATION",
	RefMode: "REFMODE", SaveRecalc: "SAVERECALC", Uncalced: "UNCALCED",

	DefaultRowHeight: "DEFAULTROWHEIGHT", DefColWidth: "DEFCOLWIDTH", Dimensions: "DIMENSIONS",
	GridSet: "GRIDSET", Guts: "GUTS", PrintGridlines: "PRINTGRIDLINES", PrintHeaders: "PRINTHEADERS",
	StandardWidth: "STANDARDWIDTH", WSBool: "WSBOOL",

	BottomMargin: "BOTTOMMARGIN", Bitmap: "BITMAP", Footer: "FOOTER", HCenter: "HCENTER",
	Header: "HEADER", HeaderFooter: "HEADERFOOTER", HorizontalPageBreaks: "HORIZONTALPAGEBREAKS",
	LeftMargin: "LEFTMARGIN", PLS: "PLS", PrintSize: "PRINTSIZE", RightMargin: "RIGHTMARGIN",
	Setup: "SETUP", TopMargin: "TOPMARGIN", VCenter: "VCENTER", VerticalPageBreaks: "VERTICALPAGEBREAKS",

	ObjProtect: "OBJPROTECT", Password: "PASSWORD", Protect: "PROTECT", ScenProtect: "SCENPROTECT",

	ColInfo: "COLINFO", Row: "ROW", Array: "ARRAY", Blank: "BLANK", BoolErr: "BOOLERR",
	Formula: "FORMULA", Label: "LABEL", LabelSST: "LABELSST", MulBlank: "MULBLANK", MulRK: "MULRK",
	Number: "NUMBER", RK: "RK", RString: "RSTRING", ShrFmla: "SHRFMLA", String: "STRING", Table: "TABLE",

	MsoDrawing: "MSODRAWING", Note: "NOTE", Obj: "OBJ", TxO: "TXO",

	Pane: "PANE", SCL: "SCL", Selection: "SELECTION", UserSViewBegin: "USERSVIEWBEGIN",
	UserSViewEnd: "USERSVIEWEND", Window2: "WINDOW2",

	CondFmt: "CONDFMT", CF: "CF", DVal: "DVAL", DV: "DV", HLink: "HLINK", MergeCells: "MERGECELLS",
	PhoneticPr: "PHONETICPR", SheetExt: "SHEETEXT", Feat: "FEAT",
}

// Name returns the conventional upper-case name of a record sid, or a hex
// placeholder such as "UNKNOWN(0x1234)" for sids this package does not know.
func Name(sid uint16) string {
	if n, ok := names[sid]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN(0x%04X)", sid)
}

// Known reports whether sid is one of the record types listed in this
// package.
func Known(sid uint16) bool {
	_, ok := names[sid]
	return ok
}
