package syntax

// Kind identifies the syntactic category of a Node.
type Kind int

const (
	KindInvalid Kind = iota
	KindCompilationUnit
	KindIdentifier
	KindQualifiedName

	// Declarations
	KindImportDecl
	KindFunctionDecl
	KindClassDecl
	KindClassBody
	KindSuperList
	KindConstructorDecl
	KindOperatorFunctionDecl
	KindParameterList
	KindParameter
	KindVariableDecl

	// Statements
	KindBlock
	KindReturnStmt
	KindIfStmt
	KindForeachStmt
	KindForeachVarList
	KindForeachVariable
	KindWhileStmt
	KindBreakStmt
	KindContinueStmt
	KindExprStmt

	// Expressions
	KindLiteralExpr
	KindNameExpr
	KindThisExpr
	KindParensExpr
	KindArrayLiteralExpr
	KindMapLiteralExpr
	KindMapEntry
	KindBracketHandlerExpr
	KindFunctionExpr
	KindCallExpr
	KindArgumentList
	KindMemberAccessExpr
	KindIndexExpr
	KindCastExpr
	KindInstanceofExpr
	KindUnaryExpr
	KindBinaryExpr
	KindTernaryExpr
	KindAssignExpr
	KindIntRangeExpr
	KindInvalidExpr

	// Type literals
	KindPrimitiveType
	KindClassType
	KindArrayType
	KindListType
	KindMapType
	KindFunctionType
	KindUnionType
)

var kindNames = [...]string{
	KindInvalid:              "Invalid",
	KindCompilationUnit:      "CompilationUnit",
	KindIdentifier:           "Identifier",
	KindQualifiedName:        "QualifiedName",
	KindImportDecl:           "ImportDecl",
	KindFunctionDecl:         "FunctionDecl",
	KindClassDecl:            "ClassDecl",
	KindClassBody:            "ClassBody",
	KindSuperList:            "SuperList",
	KindConstructorDecl:      "ConstructorDecl",
	KindOperatorFunctionDecl: "OperatorFunctionDecl",
	KindParameterList:        "ParameterList",
	KindParameter:            "Parameter",
	KindVariableDecl:         "VariableDecl",
	KindBlock:                "Block",
	KindReturnStmt:           "ReturnStmt",
	KindIfStmt:               "IfStmt",
	KindForeachStmt:          "ForeachStmt",
	KindForeachVarList:       "ForeachVarList",
	KindForeachVariable:      "ForeachVariable",
	KindWhileStmt:            "WhileStmt",
	KindBreakStmt:            "BreakStmt",
	KindContinueStmt:         "ContinueStmt",
	KindExprStmt:             "ExprStmt",
	KindLiteralExpr:          "LiteralExpr",
	KindNameExpr:             "NameExpr",
	KindThisExpr:             "ThisExpr",
	KindParensExpr:           "ParensExpr",
	KindArrayLiteralExpr:     "ArrayLiteralExpr",
	KindMapLiteralExpr:       "MapLiteralExpr",
	KindMapEntry:             "MapEntry",
	KindBracketHandlerExpr:   "BracketHandlerExpr",
	KindFunctionExpr:         "FunctionExpr",
	KindCallExpr:             "CallExpr",
	KindArgumentList:         "ArgumentList",
	KindMemberAccessExpr:     "MemberAccessExpr",
	KindIndexExpr:            "IndexExpr",
	KindCastExpr:             "CastExpr",
	KindInstanceofExpr:       "InstanceofExpr",
	KindUnaryExpr:            "UnaryExpr",
	KindBinaryExpr:           "BinaryExpr",
	KindTernaryExpr:          "TernaryExpr",
	KindAssignExpr:           "AssignExpr",
	KindIntRangeExpr:         "IntRangeExpr",
	KindInvalidExpr:          "InvalidExpr",
	KindPrimitiveType:        "PrimitiveType",
	KindClassType:            "ClassType",
	KindArrayType:            "ArrayType",
	KindListType:             "ListType",
	KindMapType:              "MapType",
	KindFunctionType:         "FunctionType",
	KindUnionType:            "UnionType",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}

// KindByName maps a kind's String form back to the Kind.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// IsExpression reports whether nodes of kind k carry a value type.
func (k Kind) IsExpression() bool {
	return k >= KindLiteralExpr && k <= KindInvalidExpr && k != KindArgumentList && k != KindMapEntry
}

// IsType reports whether k is a type literal.
func (k Kind) IsType() bool {
	return k >= KindPrimitiveType && k <= KindUnionType
}
