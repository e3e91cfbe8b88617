package dbusapi

import "github.com/godbus/dbus/v5/introspect"

const facesInterfaceXML = `
	<interface name="org.gnome.Shotwell.Faces1">
		<method name="DetectFaces">
			<arg type="s" name="image" direction="in"/>
			<arg type="s" name="cascade" direction="in"/>
			<arg type="d" name="scale" direction="in"/>
			<arg type="b" name="infer" direction="in"/>
			<arg type="` + FacesSignature + `" name="faces" direction="out"/>
		</method>
		<method name="LoadNet">
			<arg type="s" name="net" direction="in"/>
			<arg type="b" name="ret" direction="out"/>
		</method>
		<method name="FaceToVec">
			<arg type="s" name="image" direction="in"/>
			<arg type="` + VectorSignature + `" name="ret" direction="out"/>
		</method>
		<method name="Terminate"/>
	</interface>`

// IntrospectXML описание объекта для org.freedesktop.DBus.Introspectable.
const IntrospectXML = introspect.IntrospectDeclarationString + "<node>" + introspect.IntrospectDataString + facesInterfaceXML + "\n</node>"
